// Package aggregator accumulates input events into the current state of one pad and
// samples that state at a fixed rate, handing each sample to its listeners.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jibanyan-FCU/side-project/pkg/gamepad"
	"github.com/Jibanyan-FCU/side-project/pkg/observer"
)

const DefaultInterval = 100 * time.Millisecond

var (
	// ErrStateInconsistency is returned by Update for a release of a button that was
	// never seen pressed, which means an event has been lost upstream.
	ErrStateInconsistency = errors.New("release of a button that is not pressed")
	// ErrListenerPanic ends the sample loop when a listener panics.
	ErrListenerPanic = errors.New("snapshot listener panicked")
)

// Status is what a listener wants to happen after handling a snapshot.
type Status int

const (
	Continue Status = iota
	Terminate
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Terminate:
		return "terminate"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type Listener interface {
	// Update handles one snapshot.  It is called on the sample loop's goroutine, so the
	// next sample waits for it.  An error is logged and only affects this snapshot.
	Update(s gamepad.Snapshot) (Status, error)
}

type Aggregator struct {
	observer.Subject[Listener]

	controller int
	interval   time.Duration

	stateLock sync.Mutex // Guards the three fields below as one unit.
	pressed   gamepad.ButtonSet
	triggers  [2]float64
	sticks    [2]gamepad.Stick

	inconsistencies atomic.Int64
	terminated      atomic.Bool

	cancel    context.CancelFunc
	stopWG    sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}

	errLock sync.Mutex
	err     error
}

// New returns an aggregator that tracks the pad with the given controller index and
// samples every interval.
func New(controller int, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Aggregator{
		controller: controller,
		interval:   interval,
		done:       make(chan struct{}),
	}
}

// Update records one event.  Events from other pads are ignored.
func (a *Aggregator) Update(e gamepad.Event) error {
	if e.Controller != a.controller {
		return nil
	}

	a.stateLock.Lock()
	defer a.stateLock.Unlock()

	switch e.Type {
	case gamepad.EventButtonPressed:
		a.pressed = a.pressed.With(e.Button)
	case gamepad.EventButtonReleased:
		if !a.pressed.Has(e.Button) {
			a.inconsistencies.Add(1)
			return fmt.Errorf("%w: %v", ErrStateInconsistency, e.Button)
		}
		a.pressed = a.pressed.Without(e.Button)
	case gamepad.EventTriggerMoved:
		if e.Side > gamepad.Right {
			return fmt.Errorf("trigger event for unknown %v", e.Side)
		}
		a.triggers[e.Side] = e.Value
	case gamepad.EventStickMoved:
		if e.Side > gamepad.Right {
			return fmt.Errorf("stick event for unknown %v", e.Side)
		}
		a.sticks[e.Side] = gamepad.Stick{X: e.X, Y: e.Y}
	default:
		return fmt.Errorf("unexpected event type %v", e.Type)
	}
	return nil
}

// Snapshot returns the current state.
func (a *Aggregator) Snapshot() gamepad.Snapshot {
	a.stateLock.Lock()
	defer a.stateLock.Unlock()
	return gamepad.Snapshot{
		Buttons:  a.pressed,
		Triggers: a.triggers,
		Sticks:   a.sticks,
	}
}

// Notify takes one snapshot and hands it to each listener in registration order.  It
// stops at the first listener that asks to terminate and returns Terminate.
func (a *Aggregator) Notify() Status {
	snap := a.Snapshot()
	for _, l := range a.Listeners() {
		status, err := l.Update(snap)
		if err != nil {
			fmt.Printf("Aggregator: listener failed on %v: %v\n", snap, err)
		}
		if status == Terminate {
			return Terminate
		}
	}
	return Continue
}

// Start launches the sample loop.
func (a *Aggregator) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		var loopCtx context.Context
		loopCtx, a.cancel = context.WithCancel(ctx)
		a.stopWG.Add(1)
		go a.loop(loopCtx)
	})
}

// Stop ends the sample loop and waits for it to exit.  A snapshot being handled when
// Stop is called is finished first.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() {
		a.startOnce.Do(func() {
			close(a.done)
		})
		if a.cancel != nil {
			a.cancel()
		}
		a.stopWG.Wait()
	})
}

// Done is closed once the sample loop has exited.
func (a *Aggregator) Done() <-chan struct{} {
	return a.done
}

// Terminated reports whether a listener asked for termination.
func (a *Aggregator) Terminated() bool {
	return a.terminated.Load()
}

// Err returns the fault that ended the sample loop, if any.
func (a *Aggregator) Err() error {
	a.errLock.Lock()
	defer a.errLock.Unlock()
	return a.err
}

// Inconsistencies returns how many releases without a matching press have been seen.
func (a *Aggregator) Inconsistencies() int64 {
	return a.inconsistencies.Load()
}

func (a *Aggregator) loop(ctx context.Context) {
	defer a.stopWG.Done()
	defer close(a.done)

	for ctx.Err() == nil {
		status, err := a.tick()
		if err != nil {
			fmt.Printf("Aggregator: stopping: %v\n", err)
			a.errLock.Lock()
			a.err = err
			a.errLock.Unlock()
			return
		}
		if status == Terminate {
			fmt.Println("Aggregator: termination requested")
			a.terminated.Store(true)
			return
		}

		// Interval is measured from the end of the previous notify; late samples are
		// never caught up.
		select {
		case <-ctx.Done():
			return
		case <-time.After(a.interval):
		}
	}
}

func (a *Aggregator) tick() (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, r)
		}
	}()
	return a.Notify(), nil
}
