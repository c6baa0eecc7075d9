package mycobot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
)

// Frame layout on the wire:
//
//	0xFE 0xFE LEN CMD DATA... 0xFA
//
// where LEN counts CMD, DATA and the footer.
const (
	frameHeader = 0xFE
	frameFooter = 0xFA

	maxDataLen = 255 - 2
)

type Command byte

const (
	CmdPowerOn          Command = 0x10
	CmdPowerOff         Command = 0x11
	CmdIsPowerOn        Command = 0x12
	CmdReleaseAllServos Command = 0x13
	CmdGetAngles        Command = 0x20
	CmdSendAngle        Command = 0x21
	CmdSendAngles       Command = 0x22
	CmdStop             Command = 0x29
	CmdSetColor         Command = 0x6A
)

var commandNames = map[Command]string{
	CmdPowerOn:          "power-on",
	CmdPowerOff:         "power-off",
	CmdIsPowerOn:        "is-power-on",
	CmdReleaseAllServos: "release-all-servos",
	CmdGetAngles:        "get-angles",
	CmdSendAngle:        "send-angle",
	CmdSendAngles:       "send-angles",
	CmdStop:             "stop",
	CmdSetColor:         "set-color",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return fmt.Sprintf("cmd(0x%02x)", byte(c))
}

type Frame struct {
	Command Command
	Data    []byte
}

func (f Frame) String() string {
	return fmt.Sprintf("%v % x", f.Command, f.Data)
}

func (f Frame) MarshalBinary() ([]byte, error) {
	if len(f.Data) > maxDataLen {
		return nil, errors.Errorf("%v: %d data bytes is too many", f.Command, len(f.Data))
	}
	buf := make([]byte, 0, len(f.Data)+5)
	buf = append(buf, frameHeader, frameHeader, byte(len(f.Data)+2), byte(f.Command))
	buf = append(buf, f.Data...)
	buf = append(buf, frameFooter)
	return buf, nil
}

func WriteFrame(w io.Writer, f Frame) error {
	buf, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return errors.Wrapf(err, "failed to write %v", f.Command)
}

// FrameReader pulls frames out of a byte stream, skipping anything between frames.
type FrameReader struct {
	br *bufio.Reader
	// Resyncs counts how many times the reader lost sync with the frame stream.
	Resyncs int
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{br: bufio.NewReader(r)}
}

func (r *FrameReader) ReadFrame() (Frame, error) {
	for {
		if err := r.sync(); err != nil {
			return Frame{}, err
		}
		hdr := make([]byte, 3)
		if _, err := io.ReadFull(r.br, hdr); err != nil {
			return Frame{}, err
		}
		length := int(hdr[2])
		if length < 2 {
			fmt.Printf("myCobot: bad frame length %d\n", length)
			r.Resyncs++
			continue
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(r.br, body); err != nil {
			return Frame{}, err
		}
		if body[length-1] != frameFooter {
			fmt.Printf("myCobot: lost sync, expected footer, got 0x%02x\n", body[length-1])
			r.Resyncs++
			continue
		}
		return Frame{Command: Command(body[0]), Data: body[1 : length-1]}, nil
	}
}

// sync discards bytes until the next two are a frame header.
func (r *FrameReader) sync() error {
	skipped := false
	for {
		buf, err := r.br.Peek(2)
		if err != nil {
			return err
		}
		if bytes.Equal(buf, []byte{frameHeader, frameHeader}) {
			if skipped {
				r.Resyncs++
			}
			return nil
		}
		skipped = true
		if _, err := r.br.Discard(1); err != nil {
			return err
		}
	}
}

// Angles travel as big-endian int16 hundredths of a degree.

func encodeAngle(deg float64) []byte {
	v := math.Round(deg * 100)
	v = math.Max(math.MinInt16, math.Min(math.MaxInt16, v))
	return binary.BigEndian.AppendUint16(nil, uint16(int16(v)))
}

func decodeAngle(b []byte) float64 {
	return float64(int16(binary.BigEndian.Uint16(b))) / 100
}

func encodeAngles(a actuator.Angles) []byte {
	var buf []byte
	for _, deg := range a {
		buf = append(buf, encodeAngle(deg)...)
	}
	return buf
}

func decodeAngles(b []byte) (actuator.Angles, error) {
	var a actuator.Angles
	if len(b) != 2*actuator.NumJoints {
		return a, errors.Errorf("expected %d angle bytes, got %d", 2*actuator.NumJoints, len(b))
	}
	for i := range a {
		a[i] = decodeAngle(b[2*i:])
	}
	return a, nil
}

func clampSpeed(speed int) byte {
	if speed < 0 {
		return 0
	}
	if speed > 100 {
		return 100
	}
	return byte(speed)
}
