package main

import (
	"bufio"
	"context"
	"fmt"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
	"github.com/Jibanyan-FCU/side-project/pkg/config"
	"github.com/Jibanyan-FCU/side-project/pkg/lifecycle"
	"github.com/Jibanyan-FCU/side-project/pkg/screen"
)

var CLI struct {
	Device string `help:"Framebuffer device." default:"/dev/fb1"`
	PNG    string `help:"Write each rendered frame to this PNG file instead of the framebuffer." type:"path"`
}

func main() {
	kong.Parse(&CLI, kong.Description("Draw test states on the status screen."))

	s := screen.New(CLI.Device)
	if CLI.PNG == "" {
		go s.LoopUpdatingScreen(context.Background())
	}

	fmt.Println(
		`Commands:
    j <n>          # Select joint n
    c <r> <g> <b>  # Set LED colour
    d <n>          # Show the shutdown countdown from n`)

	color := config.Default().Arm().InitialColor
	joint := 1
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		var vals []int
		for _, p := range parts[1:] {
			v, err := strconv.Atoi(p)
			if err != nil {
				fmt.Println("Expected int, not ", p)
				vals = nil
				break
			}
			vals = append(vals, v)
		}
		switch {
		case parts[0] == "j" && len(vals) == 1:
			joint = vals[0]
		case parts[0] == "c" && len(vals) == 3:
			color = actuator.Color{R: uint8(vals[0]), G: uint8(vals[1]), B: uint8(vals[2])}
		case parts[0] == "d" && len(vals) == 1:
			s.ShutdownStep(lifecycle.StepWait)
			s.Countdown(vals[0])
		default:
			fmt.Println("Unknown command")
			continue
		}
		s.ReportState(joint, color)

		if CLI.PNG != "" {
			if err := writePNG(CLI.PNG, s.Status()); err != nil {
				fmt.Println("Failed to write PNG:", err)
			}
		}
	}
}

func writePNG(path string, st screen.Status) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, screen.Render(st))
}
