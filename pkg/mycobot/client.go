// Package mycobot drives an Elephant Robotics myCobot arm over its serial link.
package mycobot

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
)

const (
	DefaultDevice      = "/dev/ttyUSB0"
	DefaultBaud        = 115200
	DefaultReadTimeout = time.Second

	// maxSkippedFrames bounds how many unrelated frames a query will read past while
	// waiting for its reply.
	maxSkippedFrames = 16
)

var ErrTimeout = errors.New("timed out waiting for the arm")

// Client talks to the arm over port.  Reads from port must time out with an error
// (as Dial's port does with ErrTimeout) rather than block forever.
type Client struct {
	lock   sync.Mutex // Serialises request/reply pairs.
	port   io.ReadWriteCloser
	reader *FrameReader
	// stale is set when a query gave up on its reply, which may still turn up.
	stale bool
}

var _ actuator.Interface = (*Client)(nil)

func New(port io.ReadWriteCloser) *Client {
	return &Client{
		port:   port,
		reader: NewFrameReader(port),
	}
}

// Dial opens the arm's serial port.
func Dial(device string, baud int, readTimeout time.Duration) (*Client, error) {
	mode := &serial.Mode{
		BaudRate: baud,
	}
	s, err := serial.Open(device, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", device)
	}
	if err := s.SetReadTimeout(readTimeout); err != nil {
		_ = s.Close()
		return nil, errors.Wrapf(err, "failed to set read timeout on %s", device)
	}
	fmt.Printf("myCobot: opened %s at %d baud\n", device, baud)
	return New(timeoutReader{s}), nil
}

// timeoutReader turns the empty read that a serial port returns when its read timeout
// expires into ErrTimeout.
type timeoutReader struct {
	io.ReadWriteCloser
}

func (t timeoutReader) Read(p []byte) (int, error) {
	n, err := t.ReadWriteCloser.Read(p)
	if n == 0 && err == nil && len(p) > 0 {
		return 0, ErrTimeout
	}
	return n, err
}

func (c *Client) send(cmd Command, data ...byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return WriteFrame(c.port, Frame{Command: cmd, Data: data})
}

func (c *Client) query(cmd Command, data ...byte) (Frame, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.stale {
		c.drain()
	}
	if err := WriteFrame(c.port, Frame{Command: cmd, Data: data}); err != nil {
		return Frame{}, err
	}
	for i := 0; i < maxSkippedFrames; i++ {
		f, err := c.reader.ReadFrame()
		if err != nil {
			c.stale = true
			return Frame{}, errors.Wrapf(err, "failed to read %v reply", cmd)
		}
		if f.Command == cmd {
			return f, nil
		}
		fmt.Printf("myCobot: skipping unexpected frame %v while waiting for %v\n", f, cmd)
	}
	c.stale = true
	return Frame{}, errors.Errorf("no %v reply after %d frames", cmd, maxSkippedFrames)
}

// drain throws away everything the arm sends until the port goes quiet, so that a late
// reply to an abandoned query is not taken for the reply to the next one.  Must be
// called with lock held.
func (c *Client) drain() {
	for {
		f, err := c.reader.ReadFrame()
		if err != nil {
			break
		}
		fmt.Printf("myCobot: discarding late frame %v\n", f)
	}
	// Drop any partial frame left in the buffer.
	c.reader = NewFrameReader(c.port)
	c.stale = false
}

func (c *Client) SendAngles(angles actuator.Angles, speed int) error {
	return c.send(CmdSendAngles, append(encodeAngles(angles), clampSpeed(speed))...)
}

func (c *Client) SendAngle(joint int, degrees float64, speed int) error {
	if joint < 1 || joint > actuator.NumJoints {
		return errors.Errorf("joint %d out of range", joint)
	}
	data := []byte{byte(joint)}
	data = append(data, encodeAngle(degrees)...)
	data = append(data, clampSpeed(speed))
	return c.send(CmdSendAngle, data...)
}

func (c *Client) GetAngles() (actuator.Angles, error) {
	f, err := c.query(CmdGetAngles)
	if err != nil {
		return actuator.Angles{}, err
	}
	return decodeAngles(f.Data)
}

func (c *Client) Stop() error {
	return c.send(CmdStop)
}

func (c *Client) SetColor(col actuator.Color) error {
	return c.send(CmdSetColor, col.R, col.G, col.B)
}

func (c *Client) ReleaseAllServos() error {
	return c.send(CmdReleaseAllServos)
}

func (c *Client) PowerOn() error {
	return c.send(CmdPowerOn)
}

func (c *Client) IsPowerOn() (bool, error) {
	f, err := c.query(CmdIsPowerOn)
	if err != nil {
		return false, err
	}
	if len(f.Data) != 1 {
		return false, errors.Errorf("bad %v reply % x", CmdIsPowerOn, f.Data)
	}
	return f.Data[0] == 1, nil
}

func (c *Client) Close() error {
	return c.port.Close()
}
