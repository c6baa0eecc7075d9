package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Jibanyan-FCU/side-project/pkg/config"
	"github.com/Jibanyan-FCU/side-project/pkg/joystick"
)

var CLI struct {
	Device   string  `help:"Joystick device." default:"/dev/input/js0" env:"JOYSTICK_DEVICE"`
	Deadzone float64 `help:"Stick deadzone, 0-1."`
	Raw      bool    `help:"Also print the raw driver events."`
}

func main() {
	kong.Parse(&CLI, kong.Description("Print joystick events as the controller sees them."))

	j, err := joystick.NewJoystick(CLI.Device)
	if err != nil {
		fmt.Printf("Failed to open joystick: %v\n", err)
		os.Exit(1)
	}
	defer j.Close()

	if info, err := j.Info(); err != nil {
		fmt.Printf("No joystick info: %v\n", err)
	} else {
		fmt.Printf("Opened %q on %s: %d axes, %d buttons\n", info.Name, CLI.Device, info.Axes, info.Buttons)
	}
	fmt.Println("Set", config.JoystickEnv, "to use a different device.")

	// Closing the joystick unblocks the read below.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		_ = j.Close()
	}()

	mapper := joystick.NewMapper(0, CLI.Deadzone)
	for {
		event, err := j.ReadEvent()
		if err != nil {
			fmt.Printf("Failed to read from joystick: %v.\n", err)
			return
		}
		if CLI.Raw {
			fmt.Printf("Event from joystick: %s\n", event)
		}
		for _, e := range mapper.Translate(event) {
			fmt.Println(e)
		}
	}
}
