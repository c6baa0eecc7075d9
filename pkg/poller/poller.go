// Package poller drains a gamepad.Source on its own goroutine and hands every event to
// the registered listeners, one at a time, in registration order.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Jibanyan-FCU/side-project/pkg/gamepad"
	"github.com/Jibanyan-FCU/side-project/pkg/observer"
)

// ErrDriverFault wraps the error that made the event source unusable.
var ErrDriverFault = errors.New("input device fault")

type Listener interface {
	// Update handles one event.  An error is logged; it does not stop the poller.
	Update(e gamepad.Event) error
}

type Poller struct {
	observer.Subject[Listener]

	source gamepad.Source

	cancel    context.CancelFunc
	stopWG    sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}

	errLock sync.Mutex
	err     error
}

func New(source gamepad.Source) *Poller {
	return &Poller{
		source: source,
		done:   make(chan struct{}),
	}
}

// Start launches the poll loop.  The source is closed when ctx is cancelled or Stop is
// called, which unblocks a pending read.
func (p *Poller) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		var loopCtx context.Context
		loopCtx, p.cancel = context.WithCancel(ctx)
		context.AfterFunc(loopCtx, func() {
			if err := p.source.Close(); err != nil {
				fmt.Printf("Poller: failed to close input source: %v\n", err)
			}
		})
		p.stopWG.Add(1)
		go p.loop(loopCtx)
	})
}

// Stop ends the poll loop and waits for it to exit.  It is safe to call more than once,
// and before Start.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.startOnce.Do(func() {
			// Never started; nothing will ever close done otherwise.
			close(p.done)
		})
		if p.cancel != nil {
			p.cancel()
		}
		p.stopWG.Wait()
	})
}

// Done is closed once the poll loop has exited, for whatever reason.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Err returns the fault that ended the loop, or nil if it was stopped.
func (p *Poller) Err() error {
	p.errLock.Lock()
	defer p.errLock.Unlock()
	return p.err
}

func (p *Poller) loop(ctx context.Context) {
	defer p.stopWG.Done()
	defer close(p.done)

	for ctx.Err() == nil {
		event, err := p.source.ReadEvent()
		if err != nil {
			if ctx.Err() != nil {
				// Closed underneath us by Stop.
				return
			}
			fmt.Printf("Poller: failed to read from input source: %v\n", err)
			p.errLock.Lock()
			p.err = fmt.Errorf("%w: %w", ErrDriverFault, err)
			p.errLock.Unlock()
			return
		}
		p.Dispatch(event)
	}
}

// Dispatch delivers e to each listener in turn.  The listener list is copied first so a
// listener may unregister itself, or be unregistered, mid-delivery.
func (p *Poller) Dispatch(e gamepad.Event) {
	for _, l := range p.Listeners() {
		if err := l.Update(e); err != nil {
			fmt.Printf("Poller: listener failed to handle %v: %v\n", e, err)
		}
	}
}
