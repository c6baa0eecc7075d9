// Package armcontrol turns sampled pad state into arm commands.
//
// Each snapshot produces at most one command.  When several buttons are held, the first
// match in this list wins:
//
//	A               stand pose
//	B               sleep pose
//	X               stop motion
//	Y               advance the LED colour
//	DPAD_LEFT       rotate the selected joint towards its lower limit
//	DPAD_RIGHT      rotate the selected joint towards its upper limit
//	LEFT_SHOULDER   select the previous joint (1 wraps to 6)
//	RIGHT_SHOULDER  select the next joint (6 wraps to 1)
//
// Holding LEFT_SHOULDER, RIGHT_SHOULDER, START and BACK together ends the program.
package armcontrol

import (
	"fmt"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
	"github.com/Jibanyan-FCU/side-project/pkg/aggregator"
	"github.com/Jibanyan-FCU/side-project/pkg/angle"
	"github.com/Jibanyan-FCU/side-project/pkg/gamepad"
)

// TerminateCombo is the set of buttons that, held together, ends the program.
var TerminateCombo = gamepad.SetOf(
	gamepad.ButtonLeftShoulder,
	gamepad.ButtonRightShoulder,
	gamepad.ButtonStart,
	gamepad.ButtonBack,
)

type Action int

const (
	ActionNone Action = iota
	ActionStand
	ActionSleep
	ActionStop
	ActionNextColor
	ActionRotateNegative
	ActionRotatePositive
	ActionPrevJoint
	ActionNextJoint
)

var actionNames = map[Action]string{
	ActionNone:           "none",
	ActionStand:          "stand",
	ActionSleep:          "sleep",
	ActionStop:           "stop",
	ActionNextColor:      "next-color",
	ActionRotateNegative: "rotate-negative",
	ActionRotatePositive: "rotate-positive",
	ActionPrevJoint:      "prev-joint",
	ActionNextJoint:      "next-joint",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", int(a))
}

var priority = []struct {
	button gamepad.Button
	action Action
}{
	{gamepad.ButtonA, ActionStand},
	{gamepad.ButtonB, ActionSleep},
	{gamepad.ButtonX, ActionStop},
	{gamepad.ButtonY, ActionNextColor},
	{gamepad.ButtonDPadLeft, ActionRotateNegative},
	{gamepad.ButtonDPadRight, ActionRotatePositive},
	{gamepad.ButtonLeftShoulder, ActionPrevJoint},
	{gamepad.ButtonRightShoulder, ActionNextJoint},
}

// Decide returns the single action for a set of held buttons.  It does not consider the
// terminate combo.
func Decide(buttons gamepad.ButtonSet) Action {
	for _, p := range priority {
		if buttons.Has(p.button) {
			return p.action
		}
	}
	return ActionNone
}

// Reporter is told the control state after every tick that had buttons held.
type Reporter interface {
	ReportState(joint int, color actuator.Color)
}

// PrintReporter writes the selected joint to stdout.
type PrintReporter struct{}

func (PrintReporter) ReportState(joint int, color actuator.Color) {
	fmt.Printf("Arm: current joint %d, LED %v\n", joint, color)
}

// Controller owns the selected joint and LED colour.  Update must only be called from
// one goroutine at a time.
type Controller struct {
	arm       actuator.Interface
	config    Config
	reporters []Reporter

	joint      int
	color      actuator.Color
	terminated bool
}

var _ aggregator.Listener = (*Controller)(nil)

// New validates config and sets the arm's LED to the initial colour.
func New(arm actuator.Interface, config Config, reporters ...Reporter) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		arm:       arm,
		config:    config,
		reporters: reporters,
		joint:     1,
	}
	if err := arm.SetColor(config.InitialColor); err != nil {
		return nil, fmt.Errorf("failed to set initial LED colour: %w", err)
	}
	c.color = config.InitialColor
	c.report()
	return c, nil
}

// Joint returns the selected joint, 1-6.
func (c *Controller) Joint() int {
	return c.joint
}

func (c *Controller) Color() actuator.Color {
	return c.color
}

// Update applies one snapshot.  An arm error aborts only this tick; the state that
// command would have changed is left as it was.
func (c *Controller) Update(s gamepad.Snapshot) (aggregator.Status, error) {
	if c.terminated {
		return aggregator.Terminate, nil
	}
	if s.Buttons.Empty() {
		return aggregator.Continue, nil
	}
	if s.Buttons.HasAll(TerminateCombo) {
		fmt.Println("Arm: terminate combo pressed")
		c.terminated = true
		return aggregator.Terminate, nil
	}

	err := c.perform(Decide(s.Buttons))
	c.report()
	return aggregator.Continue, err
}

func (c *Controller) perform(action Action) error {
	switch action {
	case ActionStand:
		return c.arm.SendAngles(c.config.StandPose, c.config.PoseSpeed)
	case ActionSleep:
		return c.arm.SendAngles(c.config.SleepPose, c.config.PoseSpeed)
	case ActionStop:
		return c.arm.Stop()
	case ActionNextColor:
		next := NextColor(c.color, c.config.ColorStep)
		if err := c.arm.SetColor(next); err != nil {
			return err
		}
		c.color = next
	case ActionRotateNegative, ActionRotatePositive:
		target, err := c.rotateTarget(action == ActionRotatePositive)
		if err != nil {
			return err
		}
		return c.arm.SendAngle(c.joint, target, c.config.RotateSpeed)
	case ActionPrevJoint:
		c.joint = PrevJoint(c.joint)
	case ActionNextJoint:
		c.joint = NextJoint(c.joint)
	}
	return nil
}

// rotateTarget returns where the selected joint should head.  The last joint has no
// hard stop so it is sent most of a turn away from where it is now, wrapped into range.
func (c *Controller) rotateTarget(positive bool) (float64, error) {
	limits := c.config.Joints[c.joint-1]
	if c.joint != actuator.NumJoints {
		if positive {
			return limits.Max, nil
		}
		return limits.Min, nil
	}

	angles, err := c.arm.GetAngles()
	if err != nil {
		return 0, fmt.Errorf("failed to read joint %d: %w", c.joint, err)
	}
	current := angle.WrapOnce(angles[c.joint-1])
	if positive {
		return current.AddFloat(ContinuousJointOffset).Float(), nil
	}
	return current.SubFloat(ContinuousJointOffset).Float(), nil
}

func (c *Controller) report() {
	for _, r := range c.reporters {
		r.ReportState(c.joint, c.color)
	}
}

// ContinuousJointOffset is how far the last joint is asked to turn per rotate command.
const ContinuousJointOffset = 179

func PrevJoint(j int) int {
	if j <= 1 {
		return actuator.NumJoints
	}
	return j - 1
}

func NextJoint(j int) int {
	if j >= actuator.NumJoints {
		return 1
	}
	return j + 1
}

// NextColor advances the LED colour one step around the green, blue, red cycle.  The
// channel being drained loses step and the following channel takes up the difference
// from 255.
func NextColor(c actuator.Color, step uint8) actuator.Color {
	dec := func(v uint8) uint8 {
		if v < step {
			return 0
		}
		return v - step
	}
	switch {
	case c.R == 0 && c.G > 0:
		c.G = dec(c.G)
		c.B = 255 - c.G
	case c.G == 0 && c.B > 0:
		c.B = dec(c.B)
		c.R = 255 - c.B
	case c.B == 0 && c.R > 0:
		c.R = dec(c.R)
		c.G = 255 - c.R
	}
	return c
}
