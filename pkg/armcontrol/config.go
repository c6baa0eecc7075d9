package armcontrol

import (
	"fmt"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
)

type JointLimit struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type Config struct {
	Joints       [actuator.NumJoints]JointLimit
	StandPose    actuator.Angles
	SleepPose    actuator.Angles
	PoseSpeed    int
	RotateSpeed  int
	ColorStep    uint8
	InitialColor actuator.Color
}

var (
	DefaultJoints = [actuator.NumJoints]JointLimit{
		{-160, 160},
		{-100, 100},
		{-150, 150},
		{-150, 150},
		{-160, 160},
		{-180, 180},
	}
	DefaultStandPose = actuator.Angles{0, 0, 0, 0, 0, 0}
	// DefaultSleepPose folds the arm down onto its base.  It is also the pose the arm is
	// sent to before the servos are released on shutdown.
	DefaultSleepPose    = actuator.Angles{83, 140, -150, 154, 87, 0}
	DefaultInitialColor = actuator.Color{R: 0, G: 255, B: 0}
)

const (
	DefaultPoseSpeed   = 50
	DefaultRotateSpeed = 10
	DefaultColorStep   = 32
)

func DefaultConfig() Config {
	return Config{
		Joints:       DefaultJoints,
		StandPose:    DefaultStandPose,
		SleepPose:    DefaultSleepPose,
		PoseSpeed:    DefaultPoseSpeed,
		RotateSpeed:  DefaultRotateSpeed,
		ColorStep:    DefaultColorStep,
		InitialColor: DefaultInitialColor,
	}
}

func (c Config) Validate() error {
	for i, j := range c.Joints {
		if j.Min >= j.Max {
			return fmt.Errorf("joint %d: min %v is not below max %v", i+1, j.Min, j.Max)
		}
	}
	if c.PoseSpeed < 0 || c.PoseSpeed > 100 {
		return fmt.Errorf("pose speed %d out of range 0-100", c.PoseSpeed)
	}
	if c.RotateSpeed < 0 || c.RotateSpeed > 100 {
		return fmt.Errorf("rotate speed %d out of range 0-100", c.RotateSpeed)
	}
	if c.ColorStep == 0 {
		return fmt.Errorf("colour step must be at least 1")
	}
	return nil
}
