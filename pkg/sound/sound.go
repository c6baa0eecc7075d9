// Package sound plays short WAV cues on the speaker.
package sound

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

const SampleRate = beep.SampleRate(44100)

// Player plays one sound at a time; starting a new one cuts off the previous one.
type Player struct {
	soundsToPlay chan string
	done         chan struct{}
}

func NewPlayer() *Player {
	p := &Player{
		soundsToPlay: make(chan string, 4),
		done:         make(chan struct{}),
	}
	go p.loop()
	return p
}

// Play queues the WAV file at path.  An empty path is ignored.  It never blocks; if the
// queue is full the sound is dropped.
func (p *Player) Play(path string) {
	if path == "" {
		return
	}
	select {
	case p.soundsToPlay <- path:
	default:
		fmt.Println("Sound: queue full, dropping", path)
	}
}

// Close stops accepting sounds and waits for the player goroutine to finish.
func (p *Player) Close() {
	close(p.soundsToPlay)
	<-p.done
}

func (p *Player) loop() {
	defer close(p.done)
	defer func() {
		if r := recover(); r != nil {
			fmt.Println("Sound: player failed:", r)
		}
		for s := range p.soundsToPlay {
			fmt.Println("Sound: unable to play", s)
		}
	}()

	err := speaker.Init(SampleRate, SampleRate.N(time.Second/5))
	if err != nil {
		fmt.Println("Sound: failed to open speaker:", err)
		return
	}

	var ctrl *beep.Ctrl
	var s beep.StreamSeekCloser
	stopCurrent := func() {
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
			ctrl = nil
		}
		if s != nil {
			_ = s.Close()
			s = nil
		}
	}
	defer stopCurrent()

	for soundToPlay := range p.soundsToPlay {
		stopCurrent()

		stream, format, err := open(soundToPlay)
		if err != nil {
			fmt.Println("Sound:", err)
			continue
		}
		if format.SampleRate != SampleRate {
			fmt.Printf("Sound: %s is %d Hz, expected %d; it will play at the wrong pitch\n",
				soundToPlay, format.SampleRate, SampleRate)
		}
		s = stream
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
}

func open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open sound: %w", err)
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode sound %s: %w", path, err)
	}
	return s, format, nil
}
