package joystick

import (
	"errors"
	"io"
	"testing"

	"github.com/Jibanyan-FCU/side-project/pkg/gamepad"
)

func expectEvents(t *testing.T, got []gamepad.Event, expected ...gamepad.Event) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, got)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("Event %d: expected %v, got %v", i, expected[i], got[i])
		}
	}
}

func TestButtons(t *testing.T) {
	m := NewMapper(0, 0.1)

	expectEvents(t, m.Translate(&Event{Type: EventTypeButton, Number: ButtonCross, Value: 1}),
		gamepad.Pressed(0, gamepad.ButtonA))
	expectEvents(t, m.Translate(&Event{Type: EventTypeButton, Number: ButtonCross, Value: 0}),
		gamepad.Released(0, gamepad.ButtonA))
	expectEvents(t, m.Translate(&Event{Type: EventTypeButton, Number: ButtonOptions, Value: 1}),
		gamepad.Pressed(0, gamepad.ButtonStart))

	// L2/R2 come through the trigger axes.
	expectEvents(t, m.Translate(&Event{Type: EventTypeButton, Number: ButtonL2, Value: 1}))
	// Init events for unpressed buttons are dropped.
	expectEvents(t, m.Translate(&Event{Type: EventTypeButton, Number: ButtonSquare, Value: 0, Init: true}))
	expectEvents(t, m.Translate(&Event{Type: EventTypeButton, Number: ButtonSquare, Value: 1, Init: true}),
		gamepad.Pressed(0, gamepad.ButtonX))
}

func TestDPad(t *testing.T) {
	m := NewMapper(2, 0.1)

	expectEvents(t, m.Translate(&Event{Type: EventTypeAxis, Number: AxisDPadX, Value: -32767}),
		gamepad.Pressed(2, gamepad.ButtonDPadLeft))
	// Repeated value is not a new press.
	expectEvents(t, m.Translate(&Event{Type: EventTypeAxis, Number: AxisDPadX, Value: -32767}))
	// Rocking straight across releases one side and presses the other.
	expectEvents(t, m.Translate(&Event{Type: EventTypeAxis, Number: AxisDPadX, Value: 32767}),
		gamepad.Released(2, gamepad.ButtonDPadLeft),
		gamepad.Pressed(2, gamepad.ButtonDPadRight))
	expectEvents(t, m.Translate(&Event{Type: EventTypeAxis, Number: AxisDPadX, Value: 0}),
		gamepad.Released(2, gamepad.ButtonDPadRight))

	expectEvents(t, m.Translate(&Event{Type: EventTypeAxis, Number: AxisDPadY, Value: -32767}),
		gamepad.Pressed(2, gamepad.ButtonDPadUp))
}

func TestSticksAndTriggers(t *testing.T) {
	m := NewMapper(0, 0.1)

	expectEvents(t, m.Translate(&Event{Type: EventTypeAxis, Number: AxisL2, Value: -32767}),
		gamepad.TriggerMoved(0, gamepad.Left, 0))
	expectEvents(t, m.Translate(&Event{Type: EventTypeAxis, Number: AxisR2, Value: 32767}),
		gamepad.TriggerMoved(0, gamepad.Right, 1))

	expectEvents(t, m.Translate(&Event{Type: EventTypeAxis, Number: AxisLStickX, Value: 32767}),
		gamepad.StickMoved(0, gamepad.Left, 1, 0))
	// Up on the device is negative; up in gamepad terms is positive.
	expectEvents(t, m.Translate(&Event{Type: EventTypeAxis, Number: AxisLStickY, Value: -32767}),
		gamepad.StickMoved(0, gamepad.Left, 1, 1))
	// Inside the deadzone.
	expectEvents(t, m.Translate(&Event{Type: EventTypeAxis, Number: AxisRStickX, Value: 1000}),
		gamepad.StickMoved(0, gamepad.Right, 0, 0))
}

type fakeReader struct {
	events []*Event
	closed bool
}

func (f *fakeReader) ReadEvent() (*Event, error) {
	if len(f.events) == 0 {
		return nil, io.EOF
	}
	e := f.events[0]
	f.events = f.events[1:]
	return e, nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestSourceQueuesEvents(t *testing.T) {
	r := &fakeReader{events: []*Event{
		{Type: EventTypeButton, Number: ButtonL2, Value: 1},
		{Type: EventTypeAxis, Number: AxisDPadX, Value: 32767},
		{Type: EventTypeAxis, Number: AxisDPadX, Value: -32767},
	}}
	s := &Source{js: r, mapper: NewMapper(0, 0.1)}

	var got []gamepad.Event
	for {
		e, err := s.ReadEvent()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		got = append(got, e)
	}
	expectEvents(t, got,
		gamepad.Pressed(0, gamepad.ButtonDPadRight),
		gamepad.Released(0, gamepad.ButtonDPadRight),
		gamepad.Pressed(0, gamepad.ButtonDPadLeft))

	if err := s.Close(); err != nil || !r.closed {
		t.Errorf("Close should close the device")
	}
}
