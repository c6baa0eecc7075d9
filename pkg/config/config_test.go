package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
	"github.com/Jibanyan-FCU/side-project/pkg/armcontrol"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cobot.yaml")
	if err := os.WriteFile(path, []byte(contents), 0666); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(JoystickEnv, "")
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Backend != BackendMyCobot || c.Joystick.Device != DefaultJoystick {
		t.Errorf("Unexpected defaults %#v", c)
	}
	if c.Arm() != armcontrol.DefaultConfig() {
		t.Errorf("Arm defaults differ: %#v", c.Arm())
	}
	if c.SampleInterval != 100*time.Millisecond || c.GracePeriod != 10*time.Second {
		t.Errorf("Unexpected timings %v %v", c.SampleInterval, c.GracePeriod)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv(JoystickEnv, "/dev/input/js3")
	path := writeFile(t, `
backend: servo
joystick:
  controllerIndex: 1
  deadzone: 0.2
gracePeriod: 3s
sleepPose: [1, 2, 3, 4, 5, 6]
initialColor: [255, 0, 0]
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Backend != BackendServo || c.Joystick.ControllerIndex != 1 || c.Joystick.Deadzone != 0.2 {
		t.Errorf("Overrides not applied: %#v", c)
	}
	if c.Joystick.Device != "/dev/input/js3" {
		t.Errorf("Environment should override the device, got %q", c.Joystick.Device)
	}
	if c.GracePeriod != 3*time.Second {
		t.Errorf("Expected 3s grace period, got %v", c.GracePeriod)
	}
	arm := c.Arm()
	if arm.SleepPose != (actuator.Angles{1, 2, 3, 4, 5, 6}) {
		t.Errorf("Unexpected sleep pose %v", arm.SleepPose)
	}
	if arm.InitialColor != (actuator.Color{R: 255}) {
		t.Errorf("Unexpected initial colour %v", arm.InitialColor)
	}
	// Untouched keys keep their defaults.
	if arm.StandPose != armcontrol.DefaultStandPose || c.MyCobot.Baud != 115200 {
		t.Errorf("Defaults lost: %#v", c)
	}
}

func TestInvalid(t *testing.T) {
	t.Setenv(JoystickEnv, "")
	for _, contents := range []string{
		"backend: hydraulic",
		"poseSpeed: 200",
		"colorStep: 0",
		"standPose: [0, 0, 0]",
		"initialColor: [0, 256, 0]",
		"joints: [{min: 0, max: 0}, {min: -1, max: 1}, {min: -1, max: 1}, {min: -1, max: 1}, {min: -1, max: 1}, {min: -1, max: 1}]",
		"sampleInterval: 0s",
		"joystick: {deadzone: 1.5}",
		"nonsense: true",
		"backend: [",
	} {
		if _, err := Load(writeFile(t, contents)); err == nil {
			t.Errorf("Expected an error for %q", contents)
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	t.Setenv(JoystickEnv, "")
	c := Default()
	c.Backend = BackendDummy
	c.Joystick.ControllerIndex = 2
	path := filepath.Join(t.TempDir(), "in-use.yaml")
	if err := c.Write(path); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "sleepPose: [83, 140, -150, 154, 87, 0]") {
		t.Errorf("Unexpected dump:\n%s", raw)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Backend != BackendDummy || loaded.Joystick.ControllerIndex != 2 {
		t.Errorf("Round trip lost settings: %#v", loaded)
	}
	if loaded.Arm() != c.Arm() || loaded.GracePeriod != c.GracePeriod {
		t.Errorf("Round trip changed the arm settings")
	}
}

func TestOpenArm(t *testing.T) {
	c := Default()
	c.Backend = BackendDummy
	arm, err := c.OpenArm()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := arm.(*actuator.Dummy); !ok {
		t.Errorf("Expected the dummy arm, got %T", arm)
	}

	c.Backend = "plotter"
	if _, err := c.OpenArm(); err == nil {
		t.Errorf("Expected an error for an unknown backend")
	}

	c.Backend = BackendMyCobot
	c.MyCobot.Port = filepath.Join(t.TempDir(), "ttyNOPE")
	if _, err := c.OpenArm(); err == nil {
		t.Errorf("Expected an error for a missing serial port")
	}
}
