// Package servoarm is an arm built from six hobby servos and an RGB LED on a PCA9685.
package servoarm

import (
	"fmt"
	"sync"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
	"github.com/Jibanyan-FCU/side-project/pkg/angle"
	"github.com/Jibanyan-FCU/side-project/pkg/armcontrol"
	"github.com/Jibanyan-FCU/side-project/pkg/pca9685"
)

// DefaultLEDPorts are the PWM outputs driving the red, green and blue LED channels.
var DefaultLEDPorts = [3]int{13, 14, 15}

// Arm drives joint j from PWM port j-1.  Hobby servos report nothing back, so GetAngles
// returns the angles last commanded, and the speed argument is ignored.
type Arm struct {
	lock     sync.Mutex
	pwm      pca9685.Interface
	joints   [actuator.NumJoints]armcontrol.JointLimit
	ledPorts [3]int
	angles   actuator.Angles
}

var _ actuator.Interface = (*Arm)(nil)

func New(pwm pca9685.Interface, joints [actuator.NumJoints]armcontrol.JointLimit, ledPorts [3]int) (*Arm, error) {
	for _, p := range ledPorts {
		if p < actuator.NumJoints || p >= pca9685.NumPorts {
			return nil, fmt.Errorf("LED port %d clashes with a servo or does not exist", p)
		}
	}
	if err := pwm.Configure(); err != nil {
		return nil, err
	}
	return &Arm{
		pwm:      pwm,
		joints:   joints,
		ledPorts: ledPorts,
	}, nil
}

// position maps an angle onto the servo's 0-1 travel for the joint (0-based).
func (a *Arm) position(joint int, degrees float64) float64 {
	limits := a.joints[joint]
	if joint == actuator.NumJoints-1 {
		degrees = angle.FromFloat(degrees).Float()
	}
	degrees = angle.Clamp(degrees, limits.Min, limits.Max)
	return (degrees - limits.Min) / (limits.Max - limits.Min)
}

// SendAngles moves the joints one at a time, in order.  It is not atomic: if a write
// fails, the joints before it have already moved and GetAngles reports them at their
// new angles, while the failed joint and those after it keep their previous ones.
func (a *Arm) SendAngles(angles actuator.Angles, speed int) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	for j, deg := range angles {
		if err := a.pwm.SetServo(j, a.position(j, deg)); err != nil {
			return fmt.Errorf("failed to move joint %d: %w", j+1, err)
		}
		a.angles[j] = deg
	}
	return nil
}

func (a *Arm) SendAngle(joint int, degrees float64, speed int) error {
	if joint < 1 || joint > actuator.NumJoints {
		return fmt.Errorf("joint %d out of range", joint)
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	if err := a.pwm.SetServo(joint-1, a.position(joint-1, degrees)); err != nil {
		return fmt.Errorf("failed to move joint %d: %w", joint, err)
	}
	a.angles[joint-1] = degrees
	return nil
}

func (a *Arm) GetAngles() (actuator.Angles, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.angles, nil
}

// Stop is a no-op: a servo is always either at its target or heading there at full
// speed, and cannot be told to hold where it currently is.
func (a *Arm) Stop() error {
	return nil
}

func (a *Arm) SetColor(c actuator.Color) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	for i, v := range []uint8{c.R, c.G, c.B} {
		if err := a.pwm.SetPWM(a.ledPorts[i], float64(v)/255); err != nil {
			return fmt.Errorf("failed to set LED: %w", err)
		}
	}
	return nil
}

// ReleaseAllServos stops the servo pulses, which leaves the servos unpowered.
func (a *Arm) ReleaseAllServos() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	var firstErr error
	for j := 0; j < actuator.NumJoints; j++ {
		if err := a.pwm.Off(j); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to release joint %d: %w", j+1, err)
		}
	}
	return firstErr
}

func (a *Arm) Close() error {
	return a.pwm.Close()
}
