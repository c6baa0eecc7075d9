package mycobot

import (
	"fmt"
	"io"
	"sync"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
)

// Sim answers the serial protocol the way an arm would, without moving anything.  Moves
// complete instantly.
type Sim struct {
	lock     sync.Mutex
	angles   actuator.Angles
	color    actuator.Color
	powered  bool
	received []Command
}

type SimState struct {
	Angles  actuator.Angles
	Color   actuator.Color
	Powered bool
}

func NewSim() *Sim {
	return &Sim{powered: true}
}

func (s *Sim) State() SimState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return SimState{Angles: s.angles, Color: s.color, Powered: s.powered}
}

// Received returns the commands handled so far, oldest first.
func (s *Sim) Received() []Command {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Command(nil), s.received...)
}

// Serve handles frames from rw until reading fails, which it returns.
func (s *Sim) Serve(rw io.ReadWriter) error {
	fr := NewFrameReader(rw)
	for {
		f, err := fr.ReadFrame()
		if err != nil {
			return err
		}
		reply, ok := s.Handle(f)
		if !ok {
			continue
		}
		if err := WriteFrame(rw, reply); err != nil {
			return err
		}
	}
}

// Handle applies one frame and returns the reply, if the command has one.
func (s *Sim) Handle(f Frame) (Frame, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.received = append(s.received, f.Command)

	switch f.Command {
	case CmdPowerOn:
		s.powered = true
	case CmdPowerOff, CmdReleaseAllServos:
		s.powered = false
	case CmdIsPowerOn:
		var on byte
		if s.powered {
			on = 1
		}
		return Frame{Command: CmdIsPowerOn, Data: []byte{on}}, true
	case CmdGetAngles:
		return Frame{Command: CmdGetAngles, Data: encodeAngles(s.angles)}, true
	case CmdSendAngle:
		if len(f.Data) != 4 || f.Data[0] < 1 || int(f.Data[0]) > actuator.NumJoints {
			fmt.Printf("myCobot sim: bad %v % x\n", f.Command, f.Data)
			return Frame{}, false
		}
		s.angles[f.Data[0]-1] = decodeAngle(f.Data[1:3])
		s.powered = true
	case CmdSendAngles:
		if len(f.Data) != 2*actuator.NumJoints+1 {
			fmt.Printf("myCobot sim: bad %v % x\n", f.Command, f.Data)
			return Frame{}, false
		}
		angles, err := decodeAngles(f.Data[:2*actuator.NumJoints])
		if err != nil {
			fmt.Println("myCobot sim:", err)
			return Frame{}, false
		}
		s.angles = angles
		s.powered = true
	case CmdSetColor:
		if len(f.Data) != 3 {
			fmt.Printf("myCobot sim: bad %v % x\n", f.Command, f.Data)
			return Frame{}, false
		}
		s.color = actuator.Color{R: f.Data[0], G: f.Data[1], B: f.Data[2]}
	case CmdStop:
	default:
		fmt.Printf("myCobot sim: ignoring %v\n", f.Command)
	}
	return Frame{}, false
}
