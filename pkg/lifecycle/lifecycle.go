// Package lifecycle wires the input pipeline to the arm, runs it, and puts the arm
// safely to sleep when it ends.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
	"github.com/Jibanyan-FCU/side-project/pkg/aggregator"
	"github.com/Jibanyan-FCU/side-project/pkg/armcontrol"
	"github.com/Jibanyan-FCU/side-project/pkg/gamepad"
	"github.com/Jibanyan-FCU/side-project/pkg/poller"
)

// Step is one stage of the shutdown sequence, in the order they run.
type Step int

const (
	StepUnregister Step = iota + 1
	StepStopLoops
	StepSleepPose
	StepWait
	StepRelease
)

func (s Step) String() string {
	switch s {
	case StepUnregister:
		return "UNREGISTER"
	case StepStopLoops:
		return "STOPPING"
	case StepSleepPose:
		return "SLEEP POSE"
	case StepWait:
		return "WAITING"
	case StepRelease:
		return "RELEASING"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Reporter follows the shutdown sequence.
type Reporter interface {
	ShutdownStep(step Step)
	// Countdown is called at the start of each second of the grace wait with the number
	// of seconds left, and with 0 once the wait is over.
	Countdown(remaining int)
}

type PrintReporter struct{}

func (PrintReporter) ShutdownStep(step Step) {
	fmt.Println("Lifecycle:", step)
}

func (PrintReporter) Countdown(remaining int) {
	if remaining == 0 {
		fmt.Println("[done]")
		return
	}
	fmt.Printf("[%d]\n", remaining)
}

type Options struct {
	ControllerIndex int
	SampleInterval  time.Duration
	// GracePeriod is how long the arm is given to reach the sleep pose before its servos
	// are released.
	GracePeriod time.Duration
	Arm         armcontrol.Config

	StateReporters    []armcontrol.Reporter
	ShutdownReporters []Reporter

	// Sleep is used for the grace wait; time.Sleep if nil.
	Sleep func(time.Duration)
}

type Coordinator struct {
	arm     actuator.Interface
	opts    Options
	control *armcontrol.Controller
	agg     *aggregator.Aggregator
	poll    *poller.Poller

	shutdownOnce sync.Once
	shutdownErr  error
}

// New builds the controller, aggregator and poller, in that order, and connects them.
// Nothing runs until Run is called.
func New(arm actuator.Interface, source gamepad.Source, opts Options) (*Coordinator, error) {
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	control, err := armcontrol.New(arm, opts.Arm, opts.StateReporters...)
	if err != nil {
		return nil, err
	}
	agg := aggregator.New(opts.ControllerIndex, opts.SampleInterval)
	poll := poller.New(source)

	poll.Register(agg)
	agg.Register(control)

	return &Coordinator{
		arm:     arm,
		opts:    opts,
		control: control,
		agg:     agg,
		poll:    poll,
	}, nil
}

func (c *Coordinator) Controller() *armcontrol.Controller {
	return c.control
}

func (c *Coordinator) Aggregator() *aggregator.Aggregator {
	return c.agg
}

func (c *Coordinator) Poller() *poller.Poller {
	return c.poll
}

// Run starts the pipeline and blocks until ctx is cancelled, the terminate combo is
// pressed, or the pipeline fails.  In every case the shutdown sequence has run by the
// time Run returns.  The error is the pipeline fault, if any, joined with any shutdown
// failure.
func (c *Coordinator) Run(ctx context.Context) error {
	// The loops get their own context; they are stopped by the shutdown sequence, after
	// the listeners have been disconnected.
	loopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.poll.Start(loopCtx)
	c.agg.Start(loopCtx)
	fmt.Println("Lifecycle: running")

	var fault error
	select {
	case <-ctx.Done():
		fmt.Println("Lifecycle: interrupted")
	case <-c.agg.Done():
		if c.agg.Terminated() {
			fmt.Println("Lifecycle: terminate combo pressed")
		} else {
			fault = c.agg.Err()
		}
	case <-c.poll.Done():
		fault = c.poll.Err()
	}
	if fault != nil {
		fmt.Println("Lifecycle: pipeline failed:", fault)
	}
	return errors.Join(fault, c.Shutdown())
}

// Shutdown runs the shutdown sequence.  Only the first call does anything; later calls,
// including concurrent ones, wait for it and return its result.
func (c *Coordinator) Shutdown() error {
	c.shutdownOnce.Do(func() {
		c.shutdownErr = c.shutdown()
	})
	return c.shutdownErr
}

func (c *Coordinator) shutdown() error {
	c.report(StepUnregister)
	n := c.poll.UnregisterAll() + c.agg.UnregisterAll()
	fmt.Printf("Lifecycle: unregistered %d listeners\n", n)

	c.report(StepStopLoops)
	c.poll.Stop()
	c.agg.Stop()

	return Park(c.arm, c.opts)
}

// Park sends the arm to the sleep pose, waits the grace period and releases the
// servos, reporting each step.  It is the end of the shutdown sequence, and is also
// what to do with an arm that was powered on but never handed to a running
// Coordinator.  Both arm commands are attempted even if the first fails.
func Park(arm actuator.Interface, opts Options) error {
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	report(opts, StepSleepPose)
	sleepErr := arm.SendAngles(opts.Arm.SleepPose, opts.Arm.PoseSpeed)
	if sleepErr != nil {
		fmt.Println("Lifecycle: failed to send sleep pose:", sleepErr)
		sleepErr = fmt.Errorf("failed to send sleep pose: %w", sleepErr)
	}

	report(opts, StepWait)
	wait(opts, opts.GracePeriod)

	report(opts, StepRelease)
	releaseErr := arm.ReleaseAllServos()
	if releaseErr != nil {
		fmt.Println("Lifecycle: failed to release servos:", releaseErr)
		releaseErr = fmt.Errorf("failed to release servos: %w", releaseErr)
	}
	return errors.Join(sleepErr, releaseErr)
}

func wait(opts Options, period time.Duration) {
	for remaining := period; remaining > 0; {
		secs := int((remaining + time.Second - 1) / time.Second)
		countdown(opts, secs)
		d := min(remaining, time.Second)
		opts.Sleep(d)
		remaining -= d
	}
	countdown(opts, 0)
}

func (c *Coordinator) report(step Step) {
	report(c.opts, step)
}

func report(opts Options, step Step) {
	for _, r := range opts.ShutdownReporters {
		r.ShutdownStep(step)
	}
}

func countdown(opts Options, remaining int) {
	for _, r := range opts.ShutdownReporters {
		r.Countdown(remaining)
	}
}
