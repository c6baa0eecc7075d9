package mycobot

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
)

func expectBytes(t *testing.T, got, expected []byte) {
	t.Helper()
	if !bytes.Equal(got, expected) {
		t.Fatalf("Expected % x, got % x", expected, got)
	}
}

func TestFrameEncoding(t *testing.T) {
	buf, err := Frame{Command: CmdSetColor, Data: []byte{1, 2, 3}}.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	expectBytes(t, buf, []byte{0xfe, 0xfe, 0x05, 0x6a, 1, 2, 3, 0xfa})

	buf, _ = Frame{Command: CmdGetAngles}.MarshalBinary()
	expectBytes(t, buf, []byte{0xfe, 0xfe, 0x02, 0x20, 0xfa})

	if _, err := (Frame{Command: CmdSendAngles, Data: make([]byte, 300)}).MarshalBinary(); err == nil {
		t.Errorf("Expected an error for an oversized frame")
	}
}

func TestAngleEncoding(t *testing.T) {
	expectBytes(t, encodeAngle(83), []byte{0x20, 0x6c})
	expectBytes(t, encodeAngle(-150), []byte{0xc5, 0x68})
	expectBytes(t, encodeAngle(0.006), []byte{0x00, 0x01})
	for _, deg := range []float64{0, 179.99, -180, 12.34, -0.01} {
		if got := decodeAngle(encodeAngle(deg)); got != deg {
			t.Errorf("Angle %v came back as %v", deg, got)
		}
	}
}

func TestReaderResyncs(t *testing.T) {
	stream := []byte{
		0x00, 0xfe, 0x13, // garbage, including a lone header byte
		0xfe, 0xfe, 0x03, 0x12, 0x01, 0xfa,
		0xfe, 0xfe, 0x03, 0x12, 0x01, 0x00, // bad footer
		0xfe, 0xfe, 0x02, 0x29, 0xfa,
	}
	r := NewFrameReader(bytes.NewReader(stream))

	f, err := r.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if f.Command != CmdIsPowerOn || !bytes.Equal(f.Data, []byte{1}) {
		t.Errorf("Unexpected first frame %v", f)
	}
	f, err = r.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if f.Command != CmdStop || len(f.Data) != 0 {
		t.Errorf("Unexpected second frame %v", f)
	}
	if r.Resyncs != 2 {
		t.Errorf("Expected 2 resyncs, got %d", r.Resyncs)
	}
	if _, err := r.ReadFrame(); err != io.EOF {
		t.Errorf("Expected EOF, got %v", err)
	}
}

func newSimClient(t *testing.T) (*Client, *Sim) {
	t.Helper()
	clientConn, simConn := net.Pipe()
	sim := NewSim()
	go func() {
		_ = sim.Serve(simConn)
	}()
	c := New(clientConn)
	t.Cleanup(func() {
		_ = c.Close()
		_ = simConn.Close()
	})
	return c, sim
}

func TestClientAgainstSim(t *testing.T) {
	c, sim := newSimClient(t)

	pose := actuator.Angles{83, 140, -150, 154, 87, 0}
	if err := c.SendAngles(pose, 50); err != nil {
		t.Fatal(err)
	}
	got, err := c.GetAngles()
	if err != nil {
		t.Fatal(err)
	}
	if got != pose {
		t.Errorf("Expected %v, got %v", pose, got)
	}

	if err := c.SendAngle(6, -179.5, 10); err != nil {
		t.Fatal(err)
	}
	got, err = c.GetAngles()
	if err != nil {
		t.Fatal(err)
	}
	if got[5] != -179.5 {
		t.Errorf("Expected joint 6 at -179.5, got %v", got[5])
	}

	if err := c.SetColor(actuator.Color{R: 32, G: 0, B: 223}); err != nil {
		t.Fatal(err)
	}
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := c.ReleaseAllServos(); err != nil {
		t.Fatal(err)
	}
	on, err := c.IsPowerOn()
	if err != nil {
		t.Fatal(err)
	}
	if on {
		t.Errorf("Arm should be limp after release")
	}

	state := sim.State()
	if state.Color != (actuator.Color{R: 32, G: 0, B: 223}) {
		t.Errorf("Unexpected colour %v", state.Color)
	}
	expected := []Command{CmdSendAngles, CmdGetAngles, CmdSendAngle, CmdGetAngles,
		CmdSetColor, CmdStop, CmdReleaseAllServos, CmdIsPowerOn}
	received := sim.Received()
	if len(received) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, received)
	}
	for i := range expected {
		if received[i] != expected[i] {
			t.Errorf("Command %d: expected %v, got %v", i, expected[i], received[i])
		}
	}
}

func TestSendAngleRejectsBadJoint(t *testing.T) {
	c := New(nopPort{})
	if err := c.SendAngle(0, 10, 10); err == nil {
		t.Errorf("Expected an error for joint 0")
	}
	if err := c.SendAngle(7, 10, 10); err == nil {
		t.Errorf("Expected an error for joint 7")
	}
}

type capturePort struct {
	bytes.Buffer
}

func (c *capturePort) Close() error { return nil }

func TestSpeedIsClamped(t *testing.T) {
	port := &capturePort{}
	c := New(port)
	if err := c.SendAngle(2, 0, 250); err != nil {
		t.Fatal(err)
	}
	expectBytes(t, port.Bytes(), []byte{0xfe, 0xfe, 0x06, 0x21, 0x02, 0x00, 0x00, 100, 0xfa})
}

// nopPort never has anything to read; Read reports zero bytes like a serial port whose
// read timeout has expired.
type nopPort struct{}

func (nopPort) Read(p []byte) (int, error)  { return 0, nil }
func (nopPort) Write(p []byte) (int, error) { return len(p), nil }
func (nopPort) Close() error                { return nil }

func TestQueryTimeout(t *testing.T) {
	c := New(timeoutReader{nopPort{}})
	_, err := c.GetAngles()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected a timeout, got %v", err)
	}
}

// scriptedPort hands out queued chunks, one per Read, and times out when there are none.
// onWrite, if set, runs after each write, so a test can queue the arm's reply.
type scriptedPort struct {
	reads   [][]byte
	onWrite func(p []byte)
}

func (s *scriptedPort) Read(p []byte) (int, error) {
	if len(s.reads) == 0 {
		return 0, ErrTimeout
	}
	n := copy(p, s.reads[0])
	if n < len(s.reads[0]) {
		s.reads[0] = s.reads[0][n:]
	} else {
		s.reads = s.reads[1:]
	}
	return n, nil
}

func (s *scriptedPort) Write(p []byte) (int, error) {
	if s.onWrite != nil {
		s.onWrite(p)
	}
	return len(p), nil
}

func (s *scriptedPort) Close() error { return nil }

func (s *scriptedPort) queueAngles(t *testing.T, a actuator.Angles) {
	t.Helper()
	buf, err := Frame{Command: CmdGetAngles, Data: encodeAngles(a)}.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	s.reads = append(s.reads, buf)
}

func TestLateReplyIsDiscarded(t *testing.T) {
	port := &scriptedPort{}
	c := New(port)

	// Nothing comes back in time.
	if _, err := c.GetAngles(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected a timeout, got %v", err)
	}

	// Then the reply to the abandoned query turns up, followed by the real reply to the
	// next query once it has been sent.
	late := actuator.Angles{1, 2, 3, 4, 5, 6}
	current := actuator.Angles{10, 20, 30, 40, 50, 60}
	port.queueAngles(t, late)
	port.onWrite = func([]byte) {
		port.queueAngles(t, current)
	}

	angles, err := c.GetAngles()
	if err != nil {
		t.Fatal(err)
	}
	if angles != current {
		t.Errorf("Expected %v, got %v", current, angles)
	}
}
