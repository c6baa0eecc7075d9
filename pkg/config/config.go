// Package config holds the controller's settings, loaded from YAML over built-in
// defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
	"github.com/Jibanyan-FCU/side-project/pkg/aggregator"
	"github.com/Jibanyan-FCU/side-project/pkg/armcontrol"
	"github.com/Jibanyan-FCU/side-project/pkg/mycobot"
	"github.com/Jibanyan-FCU/side-project/pkg/pca9685"
	"github.com/Jibanyan-FCU/side-project/pkg/servoarm"
)

const (
	DefaultPath        = "/cfg/cobot.yaml"
	DefaultJoystick    = "/dev/input/js0"
	DefaultI2CDevice   = "/dev/i2c-1"
	DefaultScreen      = "/dev/fb1"
	DefaultGracePeriod = 10 * time.Second

	// JoystickEnv overrides the joystick device from the file.
	JoystickEnv = "JOYSTICK_DEVICE"
)

const (
	BackendMyCobot = "mycobot"
	BackendServo   = "servo"
	BackendDummy   = "dummy"
)

type JoystickConfig struct {
	Device          string  `yaml:"device"`
	ControllerIndex int     `yaml:"controllerIndex"`
	Deadzone        float64 `yaml:"deadzone"`
}

type MyCobotConfig struct {
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"readTimeout"`
}

type ServoConfig struct {
	I2CDevice string `yaml:"i2cDevice"`
	LEDPorts  []int  `yaml:"ledPorts,flow"`
}

type SoundsConfig struct {
	Startup  string `yaml:"startup"`
	Shutdown string `yaml:"shutdown"`
}

type ScreenConfig struct {
	Device string `yaml:"device"`
}

type Config struct {
	Backend  string         `yaml:"backend"`
	Joystick JoystickConfig `yaml:"joystick"`
	MyCobot  MyCobotConfig  `yaml:"mycobot"`
	Servo    ServoConfig    `yaml:"servo"`

	SampleInterval time.Duration `yaml:"sampleInterval"`
	GracePeriod    time.Duration `yaml:"gracePeriod"`

	Joints       []armcontrol.JointLimit `yaml:"joints"`
	StandPose    []float64               `yaml:"standPose,flow"`
	SleepPose    []float64               `yaml:"sleepPose,flow"`
	PoseSpeed    int                     `yaml:"poseSpeed"`
	RotateSpeed  int                     `yaml:"rotateSpeed"`
	ColorStep    int                     `yaml:"colorStep"`
	InitialColor []int                   `yaml:"initialColor,flow"`

	Sounds SoundsConfig `yaml:"sounds"`
	Screen ScreenConfig `yaml:"screen"`
}

func Default() *Config {
	arm := armcontrol.DefaultConfig()
	c := &Config{
		Backend: BackendMyCobot,
		Joystick: JoystickConfig{
			Device: DefaultJoystick,
		},
		MyCobot: MyCobotConfig{
			Port:        mycobot.DefaultDevice,
			Baud:        mycobot.DefaultBaud,
			ReadTimeout: mycobot.DefaultReadTimeout,
		},
		Servo: ServoConfig{
			I2CDevice: DefaultI2CDevice,
			LEDPorts:  append([]int(nil), servoarm.DefaultLEDPorts[:]...),
		},
		SampleInterval: aggregator.DefaultInterval,
		GracePeriod:    DefaultGracePeriod,
		Joints:         arm.Joints[:],
		StandPose:      arm.StandPose[:],
		SleepPose:      arm.SleepPose[:],
		PoseSpeed:      arm.PoseSpeed,
		RotateSpeed:    arm.RotateSpeed,
		ColorStep:      int(arm.ColorStep),
		InitialColor:   []int{int(arm.InitialColor.R), int(arm.InitialColor.G), int(arm.InitialColor.B)},
		Screen: ScreenConfig{
			Device: DefaultScreen,
		},
	}
	return c
}

// Load reads path over the defaults.  A missing file is not an error; the defaults are
// used.  JOYSTICK_DEVICE, if set, wins over the file.
func Load(path string) (*Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Config: %s not found, using defaults\n", path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	} else if err := yaml.UnmarshalStrict(raw, c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if dev := os.Getenv(JoystickEnv); dev != "" {
		c.Joystick.Device = dev
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMyCobot, BackendServo, BackendDummy:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Joystick.ControllerIndex < 0 {
		return fmt.Errorf("controllerIndex must not be negative")
	}
	if c.Joystick.Deadzone < 0 || c.Joystick.Deadzone >= 1 {
		return fmt.Errorf("deadzone %v out of range [0, 1)", c.Joystick.Deadzone)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sampleInterval must be positive")
	}
	if c.GracePeriod < 0 {
		return fmt.Errorf("gracePeriod must not be negative")
	}
	if len(c.Joints) != actuator.NumJoints {
		return fmt.Errorf("expected %d joints, got %d", actuator.NumJoints, len(c.Joints))
	}
	if len(c.StandPose) != actuator.NumJoints || len(c.SleepPose) != actuator.NumJoints {
		return fmt.Errorf("poses need %d angles", actuator.NumJoints)
	}
	if len(c.InitialColor) != 3 {
		return fmt.Errorf("initialColor needs 3 values")
	}
	for _, v := range c.InitialColor {
		if v < 0 || v > 255 {
			return fmt.Errorf("initialColor value %d out of range 0-255", v)
		}
	}
	if c.ColorStep < 1 || c.ColorStep > 255 {
		return fmt.Errorf("colorStep %d out of range 1-255", c.ColorStep)
	}
	if len(c.Servo.LEDPorts) != 3 {
		return fmt.Errorf("servo.ledPorts needs 3 ports")
	}
	return c.Arm().Validate()
}

// Arm returns the settings of the arm controller.  It assumes Validate has passed.
func (c *Config) Arm() armcontrol.Config {
	var a armcontrol.Config
	copy(a.Joints[:], c.Joints)
	copy(a.StandPose[:], c.StandPose)
	copy(a.SleepPose[:], c.SleepPose)
	a.PoseSpeed = c.PoseSpeed
	a.RotateSpeed = c.RotateSpeed
	a.ColorStep = uint8(c.ColorStep)
	if len(c.InitialColor) == 3 {
		a.InitialColor = actuator.Color{
			R: uint8(c.InitialColor[0]),
			G: uint8(c.InitialColor[1]),
			B: uint8(c.InitialColor[2]),
		}
	}
	return a
}

func (c *Config) LEDPorts() [3]int {
	var p [3]int
	copy(p[:], c.Servo.LEDPorts)
	return p
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Write dumps the configuration in effect to path.
func (c *Config) Write(path string) error {
	out, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0666)
}

// OpenArm connects to the configured backend.  The returned arm implements io.Closer
// when it holds a device open.
func (c *Config) OpenArm() (actuator.Interface, error) {
	switch c.Backend {
	case BackendMyCobot:
		fmt.Printf("Config: opening myCobot on %s at %d baud\n", c.MyCobot.Port, c.MyCobot.Baud)
		cobot, err := mycobot.Dial(c.MyCobot.Port, c.MyCobot.Baud, c.MyCobot.ReadTimeout)
		if err != nil {
			return nil, err
		}
		if err := cobot.PowerOn(); err != nil {
			_ = cobot.Close()
			return nil, err
		}
		return cobot, nil
	case BackendServo:
		fmt.Printf("Config: opening PCA9685 on %s\n", c.Servo.I2CDevice)
		pwm, err := pca9685.New(c.Servo.I2CDevice, pca9685.DefaultServoPulse)
		if err != nil {
			return nil, err
		}
		arm, err := servoarm.New(pwm, c.Arm().Joints, c.LEDPorts())
		if err != nil {
			_ = pwm.Close()
			return nil, err
		}
		return arm, nil
	case BackendDummy:
		fmt.Println("Config: using the dummy arm")
		return actuator.NewDummy(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}
