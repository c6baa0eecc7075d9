package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
	"github.com/Jibanyan-FCU/side-project/pkg/config"
)

var CLI struct {
	Config  string `help:"Path to the YAML config file." default:"/cfg/cobot.yaml" type:"path"`
	Backend string `help:"Arm backend (mycobot, servo or dummy), overrides the config file."`
	Port    string `help:"myCobot serial port, overrides the config file."`
}

func main() {
	fmt.Println("---- armtests ----")
	kong.Parse(&CLI, kong.Description("Send commands to the arm by hand."))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Failed to load config:", err)
		return
	}
	if CLI.Backend != "" {
		cfg.Backend = CLI.Backend
	}
	if CLI.Port != "" {
		cfg.MyCobot.Port = CLI.Port
	}
	arm, err := cfg.OpenArm()
	if err != nil {
		fmt.Println("Failed to open arm:", err)
		return
	}
	if c, ok := arm.(io.Closer); ok {
		defer c.Close()
	}

	fmt.Println(
		`Commands:
    a <a1> ... <a6> [speed]  # Move all joints
    j <n> <angle> [speed]    # Move joint n (1-6)
    g                        # Print joint angles
    c <r> <g> <b>            # Set LED colour
    s                        # Stop
    r                        # Release all servos
    q                        # Quit`)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if parts[0] == "q" {
			return
		}
		if err := execute(arm, parts[0], parts[1:]); err != nil {
			fmt.Println("ERROR:", err)
		}
	}
}

func execute(arm actuator.Interface, cmd string, args []string) error {
	switch cmd {
	case "a":
		if len(args) < actuator.NumJoints {
			return fmt.Errorf("expected %d angles", actuator.NumJoints)
		}
		var angles actuator.Angles
		for i := range angles {
			v, err := strconv.ParseFloat(args[i], 64)
			if err != nil {
				return fmt.Errorf("expected float, not %s", args[i])
			}
			angles[i] = v
		}
		speed, err := speedArg(args[actuator.NumJoints:], 50)
		if err != nil {
			return err
		}
		return arm.SendAngles(angles, speed)
	case "j":
		if len(args) < 2 {
			return fmt.Errorf("not enough parameters")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("expected int, not %s", args[0])
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("expected float, not %s", args[1])
		}
		speed, err := speedArg(args[2:], 10)
		if err != nil {
			return err
		}
		return arm.SendAngle(n, v, speed)
	case "g":
		angles, err := arm.GetAngles()
		if err != nil {
			return err
		}
		fmt.Println("Angles:", angles)
		return nil
	case "c":
		if len(args) < 3 {
			return fmt.Errorf("not enough parameters")
		}
		var rgb [3]uint8
		for i := range rgb {
			v, err := strconv.ParseUint(args[i], 10, 8)
			if err != nil {
				return fmt.Errorf("expected 0-255, not %s", args[i])
			}
			rgb[i] = uint8(v)
		}
		return arm.SetColor(actuator.Color{R: rgb[0], G: rgb[1], B: rgb[2]})
	case "s":
		return arm.Stop()
	case "r":
		return arm.ReleaseAllServos()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func speedArg(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	speed, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("expected int speed, not %s", args[0])
	}
	return speed, nil
}
