package actuator

import "fmt"

const NumJoints = 6

// Angles holds one angle in degrees per joint; index 0 is joint 1.
type Angles [NumJoints]float64

type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// Interface is the arm's native command set.  Every call blocks until the arm has
// accepted the command; motion itself may still be in progress when it returns.
type Interface interface {
	// SendAngles moves all joints.  Speed is 0-100.
	SendAngles(angles Angles, speed int) error
	// SendAngle moves a single joint, numbered 1-6.
	SendAngle(joint int, degrees float64, speed int) error
	GetAngles() (Angles, error)
	// Stop halts any motion in progress.
	Stop() error
	SetColor(c Color) error
	// ReleaseAllServos removes holding torque from every joint.
	ReleaseAllServos() error
}
