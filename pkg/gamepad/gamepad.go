package gamepad

import (
	"fmt"
	"math/bits"
	"strings"
)

// Button identifies a digital control on the pad.  Names follow the XInput layout
// regardless of the physical controller.
type Button uint8

const (
	ButtonA Button = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonLeftShoulder
	ButtonRightShoulder
	ButtonBack
	ButtonStart
	ButtonLeftThumb
	ButtonRightThumb
	ButtonGuide
	ButtonDPadUp
	ButtonDPadDown
	ButtonDPadLeft
	ButtonDPadRight

	NumButtons
)

var buttonNames = [NumButtons]string{
	ButtonA:             "A",
	ButtonB:             "B",
	ButtonX:             "X",
	ButtonY:             "Y",
	ButtonLeftShoulder:  "LEFT_SHOULDER",
	ButtonRightShoulder: "RIGHT_SHOULDER",
	ButtonBack:          "BACK",
	ButtonStart:         "START",
	ButtonLeftThumb:     "LEFT_THUMB",
	ButtonRightThumb:    "RIGHT_THUMB",
	ButtonGuide:         "GUIDE",
	ButtonDPadUp:        "DPAD_UP",
	ButtonDPadDown:      "DPAD_DOWN",
	ButtonDPadLeft:      "DPAD_LEFT",
	ButtonDPadRight:     "DPAD_RIGHT",
}

func (b Button) String() string {
	if b < NumButtons {
		return buttonNames[b]
	}
	return fmt.Sprintf("unknown(%d)", uint8(b))
}

// Side selects the left or right trigger/stick.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "L"
	case Right:
		return "R"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

type EventType uint8

const (
	EventButtonPressed EventType = iota + 1
	EventButtonReleased
	EventTriggerMoved
	EventStickMoved
)

func (t EventType) String() string {
	switch t {
	case EventButtonPressed:
		return "pressed"
	case EventButtonReleased:
		return "released"
	case EventTriggerMoved:
		return "trigger"
	case EventStickMoved:
		return "stick"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Event is a single occurrence reported by the input device.  Which of the payload
// fields are meaningful depends on Type.
type Event struct {
	Type EventType
	// Controller is the index of the pad that produced the event.
	Controller int

	Button Button
	Side   Side
	// Value is the trigger position, 0 (released) to 1 (fully pressed).
	Value float64
	// X, Y are the stick position, each -1 to 1.  Y is positive when pushed up.
	X, Y float64
}

func Pressed(controller int, b Button) Event {
	return Event{Type: EventButtonPressed, Controller: controller, Button: b}
}

func Released(controller int, b Button) Event {
	return Event{Type: EventButtonReleased, Controller: controller, Button: b}
}

func TriggerMoved(controller int, side Side, value float64) Event {
	return Event{Type: EventTriggerMoved, Controller: controller, Side: side, Value: value}
}

func StickMoved(controller int, side Side, x, y float64) Event {
	return Event{Type: EventStickMoved, Controller: controller, Side: side, X: x, Y: y}
}

func (e Event) String() string {
	switch e.Type {
	case EventButtonPressed, EventButtonReleased:
		return fmt.Sprintf("pad%d %v %v", e.Controller, e.Button, e.Type)
	case EventTriggerMoved:
		return fmt.Sprintf("pad%d trigger %v=%.3f", e.Controller, e.Side, e.Value)
	case EventStickMoved:
		return fmt.Sprintf("pad%d stick %v=(%.3f,%.3f)", e.Controller, e.Side, e.X, e.Y)
	default:
		return fmt.Sprintf("pad%d %v", e.Controller, e.Type)
	}
}

// ButtonSet is an immutable set of buttons.  Being a plain value, copies never share
// state.
type ButtonSet uint32

func SetOf(buttons ...Button) ButtonSet {
	var s ButtonSet
	for _, b := range buttons {
		s = s.With(b)
	}
	return s
}

func (s ButtonSet) Has(b Button) bool {
	return s&(1<<b) != 0
}

// HasAll returns true if every member of o is also in s.
func (s ButtonSet) HasAll(o ButtonSet) bool {
	return s&o == o
}

func (s ButtonSet) With(b Button) ButtonSet {
	return s | 1<<b
}

func (s ButtonSet) Without(b Button) ButtonSet {
	return s &^ (1 << b)
}

func (s ButtonSet) Empty() bool {
	return s == 0
}

func (s ButtonSet) Len() int {
	return bits.OnesCount32(uint32(s))
}

func (s ButtonSet) Buttons() []Button {
	var out []Button
	for b := Button(0); b < NumButtons; b++ {
		if s.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s ButtonSet) String() string {
	var names []string
	for _, b := range s.Buttons() {
		names = append(names, b.String())
	}
	return "{" + strings.Join(names, " ") + "}"
}

type Stick struct {
	X, Y float64
}

// Snapshot is the accumulated state of every input channel at one instant.  All fields
// are values so a Snapshot can be handed to any number of listeners.
type Snapshot struct {
	Buttons  ButtonSet
	Triggers [2]float64
	Sticks   [2]Stick
}

func (s Snapshot) String() string {
	return fmt.Sprintf("buttons=%v triggers=[%.2f %.2f] sticks=[(%.2f,%.2f) (%.2f,%.2f)]",
		s.Buttons, s.Triggers[Left], s.Triggers[Right],
		s.Sticks[Left].X, s.Sticks[Left].Y, s.Sticks[Right].X, s.Sticks[Right].Y)
}

// Source is a blocking supply of events from an input device.  Close must unblock a
// ReadEvent that is in progress.
type Source interface {
	ReadEvent() (Event, error)
	Close() error
}
