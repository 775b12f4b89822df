package timer

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Runner owns the one-second ticker that drives an Engine outside the TUI.
// The ticker only exists while a phase is active. All access to the engine
// goes through the Runner's lock, including signal handlers, which must not
// call back into the Runner.
type Runner struct {
	mu     sync.Mutex
	engine *Engine
	clock  clockwork.Clock

	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewRunner wraps e using e's clock.
func NewRunner(e *Engine) *Runner {
	return &Runner{engine: e, clock: e.clock}
}

// Do runs fn against the engine and starts or stops the ticker to match the
// resulting phase.
func (r *Runner) Do(fn func(e *Engine) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return context.Canceled
	}
	err := fn(r.engine)
	r.syncTicker()
	return err
}

// Snapshot returns the engine's current view.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Snapshot()
}

// Ticking reports whether the ticker goroutine is running.
func (r *Runner) Ticking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Close stops the ticker, tears the engine down and waits for the ticker
// goroutine to exit.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	done := r.stopTicker()
	r.engine.Teardown()
	r.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (r *Runner) syncTicker() {
	active := r.engine.state.Phase.Active()
	switch {
	case active && r.cancel == nil:
		r.startTicker()
	case !active && r.cancel != nil:
		r.stopTicker()
	}
}

func (r *Runner) startTicker() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	ticker := r.clock.NewTicker(TickInterval)
	r.cancel, r.done = cancel, done

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				r.tick(ctx)
			}
		}
	}()
}

// stopTicker cancels the ticker goroutine without waiting for it, since
// the goroutine may be blocked on r.mu. It returns the goroutine's done
// channel.
func (r *Runner) stopTicker() chan struct{} {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	done := r.done
	r.cancel, r.done = nil, nil
	return done
}

func (r *Runner) tick(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	r.engine.Tick()
	r.syncTicker()
}
