package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/kr/pty"

	"github.com/Jibanyan-FCU/side-project/pkg/mycobot"
)

var CLI struct {
	Status time.Duration `help:"How often to print the simulated arm's state; 0 to disable." default:"2s"`
}

func main() {
	fmt.Println("---- cobotsim ----")
	kong.Parse(&CLI, kong.Description("Simulate a myCobot on a pseudo-terminal."))

	master, tty, err := pty.Open()
	if err != nil {
		fmt.Println("Failed to open pty:", err)
		os.Exit(1)
	}
	// Holding the tty open keeps the master readable between client connections.
	defer tty.Close()
	defer master.Close()

	fmt.Printf("Simulated myCobot on %s\n", tty.Name())
	fmt.Printf("Run: cobotctl --backend=mycobot --port=%s\n", tty.Name())

	sim := mycobot.NewSim()

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		_ = master.Close()
	}()

	if CLI.Status > 0 {
		go func() {
			for range time.Tick(CLI.Status) {
				st := sim.State()
				fmt.Printf("myCobot sim: angles %v LED %v powered %v\n", st.Angles, st.Color, st.Powered)
			}
		}()
	}

	err = sim.Serve(master)
	fmt.Println("myCobot sim: stopped:", err)
}
