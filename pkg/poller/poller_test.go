package poller

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Jibanyan-FCU/side-project/pkg/gamepad"
)

// chanSource is a gamepad.Source fed from a channel.  Close unblocks a pending read.
type chanSource struct {
	events    chan gamepad.Event
	failWith  error
	closed    chan struct{}
	closeOnce sync.Once
}

func newChanSource() *chanSource {
	return &chanSource{
		events: make(chan gamepad.Event),
		closed: make(chan struct{}),
	}
}

func (s *chanSource) ReadEvent() (gamepad.Event, error) {
	select {
	case e, ok := <-s.events:
		if !ok {
			return gamepad.Event{}, s.failWith
		}
		return e, nil
	case <-s.closed:
		return gamepad.Event{}, io.ErrClosedPipe
	}
}

func (s *chanSource) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

type recorder struct {
	name string
	log  chan string
	err  error
}

func (r *recorder) Update(e gamepad.Event) error {
	r.log <- r.name + ":" + e.Button.String()
	return r.err
}

func expectLog(t *testing.T, log chan string, expected ...string) {
	t.Helper()
	for _, exp := range expected {
		select {
		case got := <-log:
			if got != exp {
				t.Fatalf("Expected %q, got %q", exp, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timed out waiting for %q", exp)
		}
	}
}

func expectDone(t *testing.T, p *Poller) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatalf("Poller did not finish")
	}
}

func TestDispatchInRegistrationOrder(t *testing.T) {
	src := newChanSource()
	p := New(src)
	log := make(chan string, 10)
	first := &recorder{name: "first", log: log, err: errors.New("ignored")}
	second := &recorder{name: "second", log: log}
	p.Register(first, second)

	p.Start(context.Background())
	defer p.Stop()

	src.events <- gamepad.Pressed(0, gamepad.ButtonA)
	// A failing listener doesn't stop delivery to the next one.
	expectLog(t, log, "first:A", "second:A")

	p.Unregister(first)
	src.events <- gamepad.Pressed(0, gamepad.ButtonB)
	expectLog(t, log, "second:B")
}

func TestStopUnblocksRead(t *testing.T) {
	src := newChanSource()
	p := New(src)
	p.Start(context.Background())

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatalf("Stop blocked on a pending read")
	}
	expectDone(t, p)
	if p.Err() != nil {
		t.Errorf("A stopped poller should report no fault, got %v", p.Err())
	}

	// Idempotent.
	p.Stop()
}

func TestContextCancelStopsLoop(t *testing.T) {
	src := newChanSource()
	p := New(src)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()
	expectDone(t, p)
	p.Stop()
	if p.Err() != nil {
		t.Errorf("Unexpected fault %v", p.Err())
	}
}

func TestSourceFailureIsDriverFault(t *testing.T) {
	src := newChanSource()
	src.failWith = errors.New("device unplugged")
	p := New(src)
	p.Start(context.Background())
	defer p.Stop()

	close(src.events)
	expectDone(t, p)
	if !errors.Is(p.Err(), ErrDriverFault) {
		t.Errorf("Expected a driver fault, got %v", p.Err())
	}
	if !errors.Is(p.Err(), src.failWith) {
		t.Errorf("Driver fault should wrap the cause, got %v", p.Err())
	}
}

func TestStopBeforeStart(t *testing.T) {
	p := New(newChanSource())
	p.Stop()
	expectDone(t, p)
}
