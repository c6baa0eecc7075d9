package joystick

import (
	"math"

	"github.com/Jibanyan-FCU/side-project/pkg/gamepad"
)

// DefaultButtonMap maps DualShock button numbers onto the XInput-style names used by
// the rest of the pipeline.  L2 and R2 are reported through their axes instead.
var DefaultButtonMap = map[uint8]gamepad.Button{
	ButtonCross:    gamepad.ButtonA,
	ButtonCircle:   gamepad.ButtonB,
	ButtonSquare:   gamepad.ButtonX,
	ButtonTriangle: gamepad.ButtonY,
	ButtonL1:       gamepad.ButtonLeftShoulder,
	ButtonR1:       gamepad.ButtonRightShoulder,
	ButtonShare:    gamepad.ButtonBack,
	ButtonOptions:  gamepad.ButtonStart,
	ButtonPS:       gamepad.ButtonGuide,
	ButtonLStick:   gamepad.ButtonLeftThumb,
	ButtonRStick:   gamepad.ButtonRightThumb,
}

// Mapper turns raw joystick events into gamepad events.  It is stateful: the D-pad
// arrives as two axes and is turned into press/release pairs, and stick positions are
// reported as (x, y) pairs so each axis update needs the other axis' last value.
type Mapper struct {
	Controller int
	// Deadzone is the stick magnitude (0-1) below which an axis reads as 0.
	Deadzone float64
	Buttons  map[uint8]gamepad.Button

	dpadX, dpadY int16
	sticks       [2]gamepad.Stick
}

func NewMapper(controller int, deadzone float64) *Mapper {
	return &Mapper{
		Controller: controller,
		Deadzone:   deadzone,
		Buttons:    DefaultButtonMap,
	}
}

// Translate returns the gamepad events implied by e, which may be none.
func (m *Mapper) Translate(e *Event) []gamepad.Event {
	switch e.Type {
	case EventTypeButton:
		b, ok := m.Buttons[e.Number]
		if !ok {
			return nil
		}
		if e.Value != 0 {
			return []gamepad.Event{gamepad.Pressed(m.Controller, b)}
		}
		if e.Init {
			// Initial state of an unpressed button; it was never pressed so there is
			// nothing to release.
			return nil
		}
		return []gamepad.Event{gamepad.Released(m.Controller, b)}
	case EventTypeAxis:
		switch e.Number {
		case AxisDPadX:
			out := m.dpad(m.dpadX, e.Value, gamepad.ButtonDPadLeft, gamepad.ButtonDPadRight)
			m.dpadX = e.Value
			return out
		case AxisDPadY:
			out := m.dpad(m.dpadY, e.Value, gamepad.ButtonDPadUp, gamepad.ButtonDPadDown)
			m.dpadY = e.Value
			return out
		case AxisL2:
			return []gamepad.Event{gamepad.TriggerMoved(m.Controller, gamepad.Left, triggerValue(e.Value))}
		case AxisR2:
			return []gamepad.Event{gamepad.TriggerMoved(m.Controller, gamepad.Right, triggerValue(e.Value))}
		case AxisLStickX:
			m.sticks[gamepad.Left].X = m.stickValue(e.Value)
			return m.stickEvent(gamepad.Left)
		case AxisLStickY:
			m.sticks[gamepad.Left].Y = -m.stickValue(e.Value)
			return m.stickEvent(gamepad.Left)
		case AxisRStickX:
			m.sticks[gamepad.Right].X = m.stickValue(e.Value)
			return m.stickEvent(gamepad.Right)
		case AxisRStickY:
			m.sticks[gamepad.Right].Y = -m.stickValue(e.Value)
			return m.stickEvent(gamepad.Right)
		}
	}
	return nil
}

func (m *Mapper) dpad(old, new int16, negative, positive gamepad.Button) []gamepad.Event {
	oldDir, newDir := sign(old), sign(new)
	if oldDir == newDir {
		return nil
	}
	var out []gamepad.Event
	switch oldDir {
	case -1:
		out = append(out, gamepad.Released(m.Controller, negative))
	case 1:
		out = append(out, gamepad.Released(m.Controller, positive))
	}
	switch newDir {
	case -1:
		out = append(out, gamepad.Pressed(m.Controller, negative))
	case 1:
		out = append(out, gamepad.Pressed(m.Controller, positive))
	}
	return out
}

func (m *Mapper) stickEvent(side gamepad.Side) []gamepad.Event {
	s := m.sticks[side]
	return []gamepad.Event{gamepad.StickMoved(m.Controller, side, s.X, s.Y)}
}

func (m *Mapper) stickValue(raw int16) float64 {
	v := clamp(float64(raw)/math.MaxInt16, -1, 1)
	if math.Abs(v) < m.Deadzone {
		return 0
	}
	return v
}

func triggerValue(raw int16) float64 {
	return clamp((float64(raw)+math.MaxInt16)/(2*math.MaxInt16), 0, 1)
}

func sign(v int16) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

type eventReader interface {
	ReadEvent() (*Event, error)
	Close() error
}

// Source adapts a Joystick to gamepad.Source.
type Source struct {
	js      eventReader
	mapper  *Mapper
	pending []gamepad.Event
}

var _ gamepad.Source = (*Source)(nil)

func NewSource(j *Joystick, mapper *Mapper) *Source {
	return &Source{js: j, mapper: mapper}
}

// ReadEvent blocks until the device reports something that translates to at least one
// gamepad event.
func (s *Source) ReadEvent() (gamepad.Event, error) {
	for len(s.pending) == 0 {
		e, err := s.js.ReadEvent()
		if err != nil {
			return gamepad.Event{}, err
		}
		s.pending = s.mapper.Translate(e)
	}
	e := s.pending[0]
	s.pending = s.pending[1:]
	return e, nil
}

func (s *Source) Close() error {
	return s.js.Close()
}
