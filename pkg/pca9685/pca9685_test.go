package pca9685

import (
	"bytes"
	"errors"
	"testing"
)

type write struct {
	reg byte
	buf []byte
}

type fakeBus struct {
	writes []write
}

func (f *fakeBus) WriteReg(reg byte, buf []byte) error {
	f.writes = append(f.writes, write{reg, append([]byte(nil), buf...)})
	return nil
}

func (f *fakeBus) Close() error {
	return nil
}

func expectWrite(t *testing.T, bus *fakeBus, reg byte, buf ...byte) {
	t.Helper()
	if len(bus.writes) == 0 {
		t.Fatalf("Expected a write to 0x%02x, got none", reg)
	}
	w := bus.writes[0]
	bus.writes = bus.writes[1:]
	if w.reg != reg || !bytes.Equal(w.buf, buf) {
		t.Fatalf("Expected write 0x%02x % x, got 0x%02x % x", reg, buf, w.reg, w.buf)
	}
}

func TestPreScale(t *testing.T) {
	if got := PreScale(50); got != 0x79 {
		t.Errorf("Expected 0x79 for 50Hz, got 0x%02x", got)
	}
}

func TestConfigure(t *testing.T) {
	bus := &fakeBus{}
	p := &PCA9685{dev: bus, pulse: DefaultServoPulse}
	if err := p.Configure(); err != nil {
		t.Fatal(err)
	}
	expectWrite(t, bus, RegMode1, 0x11)
	expectWrite(t, bus, RegPreScale, 0x79)
	expectWrite(t, bus, RegMode1, 0x01)
	expectWrite(t, bus, RegMode1, 0x81)
}

func TestOutputs(t *testing.T) {
	bus := &fakeBus{}
	p := &PCA9685{dev: bus, pulse: DefaultServoPulse}

	// 500us of a 20ms period.
	_ = p.SetServo(0, 0)
	expectWrite(t, bus, 0x06, 0, 0, 102, 0)
	// 2500us; out of range values are clamped.
	_ = p.SetServo(1, 7)
	expectWrite(t, bus, 0x0a, 0, 0, 0xff, 0x01)

	_ = p.SetPWM(15, 1)
	expectWrite(t, bus, 0x42, 0, 0, 0xff, 0x0f)
	_ = p.SetPWM(13, 0)
	expectWrite(t, bus, 0x3a, 0, 0, 0, 0)

	_ = p.Off(2)
	expectWrite(t, bus, 0x0e, 0, 0, 0, 0x10)

	if err := p.SetPWM(16, 1); !errors.Is(err, ErrBadPort) {
		t.Errorf("Expected ErrBadPort, got %v", err)
	}
	if err := p.Off(-1); !errors.Is(err, ErrBadPort) {
		t.Errorf("Expected ErrBadPort, got %v", err)
	}
	if len(bus.writes) != 0 {
		t.Errorf("Unexpected writes %v", bus.writes)
	}
}
