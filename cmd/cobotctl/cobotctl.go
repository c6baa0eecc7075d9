package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/Jibanyan-FCU/side-project/pkg/armcontrol"
	"github.com/Jibanyan-FCU/side-project/pkg/config"
	"github.com/Jibanyan-FCU/side-project/pkg/gamepad"
	"github.com/Jibanyan-FCU/side-project/pkg/joystick"
	"github.com/Jibanyan-FCU/side-project/pkg/lifecycle"
	"github.com/Jibanyan-FCU/side-project/pkg/screen"
	"github.com/Jibanyan-FCU/side-project/pkg/sound"
)

var CLI struct {
	Config     string `help:"Path to the YAML config file." default:"/cfg/cobot.yaml" type:"path"`
	Backend    string `help:"Arm backend (mycobot, servo or dummy), overrides the config file."`
	Joystick   string `help:"Joystick device, overrides the config file." env:"JOYSTICK_DEVICE"`
	Port       string `help:"myCobot serial port, overrides the config file."`
	NoScreen   bool   `help:"Don't drive the status screen."`
	DumpConfig bool   `help:"Print the configuration in effect and exit."`
}

const banner = `Controls:
    A               stand
    B               sleep
    X               stop
    Y               next LED colour
    D-pad left      rotate selected joint -
    D-pad right     rotate selected joint +
    L1              previous joint
    R1              next joint
    L1+R1+START+BACK  quit`

func main() {
	fmt.Println("---- cobotctl ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	kong.Parse(&CLI, kong.Description("Drive a robot arm from a game controller."))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Failed to load config:", err)
		os.Exit(1)
	}
	if CLI.Backend != "" {
		cfg.Backend = CLI.Backend
	}
	if CLI.Joystick != "" {
		cfg.Joystick.Device = CLI.Joystick
	}
	if CLI.Port != "" {
		cfg.MyCobot.Port = CLI.Port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid settings:", err)
		os.Exit(1)
	}
	if CLI.DumpConfig {
		out, err := cfg.Marshal()
		if err != nil {
			fmt.Println("Failed to marshal config:", err)
			os.Exit(1)
		}
		fmt.Print(string(out))
		return
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	if err := run(ctx, cfg); err != nil {
		fmt.Println("Exiting with error:", err)
		cancel()
		os.Exit(1)
	}
}

var (
	openSource = func(ctx context.Context, cfg *config.Config) (gamepad.Source, error) {
		j, err := openJoystick(ctx, cfg.Joystick.Device)
		if err != nil {
			return nil, err
		}
		return joystick.NewSource(j, joystick.NewMapper(cfg.Joystick.ControllerIndex, cfg.Joystick.Deadzone)), nil
	}
	openArm = (*config.Config).OpenArm
)

// run drives the arm until ctx is cancelled or the quit combo is pressed.  Once the arm
// has been opened (and so powered on) every way out of run leaves it parked.
func run(ctx context.Context, cfg *config.Config) error {
	// Wait for the joystick before touching the arm, so giving up while waiting leaves
	// the arm as it was.
	source, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	arm, err := openArm(cfg)
	if err != nil {
		return err
	}
	if c, ok := arm.(io.Closer); ok {
		defer c.Close()
	}

	player := sound.NewPlayer()
	defer player.Close()

	stateReporters := []armcontrol.Reporter{armcontrol.PrintReporter{}}
	shutdownReporters := []lifecycle.Reporter{lifecycle.PrintReporter{}, soundCues{player, cfg.Sounds.Shutdown}}
	if !CLI.NoScreen {
		scr := screen.New(cfg.Screen.Device)
		stateReporters = append(stateReporters, scr)
		shutdownReporters = append(shutdownReporters, scr)
		screenCtx, stopScreen := context.WithCancel(context.Background())
		screenDone := make(chan struct{})
		go func() {
			defer close(screenDone)
			scr.LoopUpdatingScreen(screenCtx)
		}()
		defer func() {
			stopScreen()
			<-screenDone
		}()
	}

	opts := lifecycle.Options{
		ControllerIndex:   cfg.Joystick.ControllerIndex,
		SampleInterval:    cfg.SampleInterval,
		GracePeriod:       cfg.GracePeriod,
		Arm:               cfg.Arm(),
		StateReporters:    stateReporters,
		ShutdownReporters: shutdownReporters,
	}
	coord, err := lifecycle.New(arm, source, opts)
	if err != nil {
		fmt.Println("Failed to start, parking the arm:", err)
		return errors.Join(err, lifecycle.Park(arm, opts))
	}

	fmt.Println(banner)
	player.Play(cfg.Sounds.Startup)
	return coord.Run(ctx)
}

// openJoystick waits for the joystick to appear.
func openJoystick(ctx context.Context, device string) (*joystick.Joystick, error) {
	firstLog := true
	for {
		j, err := joystick.NewJoystick(device)
		if err == nil {
			if info, err := j.Info(); err == nil {
				fmt.Printf("Opened joystick %q: %d axes, %d buttons\n", info.Name, info.Axes, info.Buttons)
			} else {
				fmt.Printf("Opened joystick %s\n", device)
			}
			return j, nil
		}
		if firstLog {
			fmt.Printf("Waiting for joystick: %v.\n", err)
			firstLog = false
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
}

// soundCues plays the shutdown sound as the arm heads for its sleep pose.
type soundCues struct {
	player   *sound.Player
	shutdown string
}

func (s soundCues) ShutdownStep(step lifecycle.Step) {
	if step == lifecycle.StepSleepPose {
		s.player.Play(s.shutdown)
	}
}

func (soundCues) Countdown(int) {}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.  The shutdown sequence itself has to run to the end
	// so later signals are only logged.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for s := range signals {
			log.Println("Signal: ", s)
			cancelFunc()
		}
	}()
}
