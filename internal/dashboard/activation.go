package dashboard

import (
	"context"
	"errors"
	"sync"
)

// ErrInactive is returned when a screen was deactivated while its fetch
// was in flight. The result was discarded.
var ErrInactive = errors.New("dashboard deactivated")

// activation scopes fetches to one screen activation. Each Activate bumps
// the generation and derives a fresh context; Deactivate cancels it.
type activation struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func (a *activation) begin(parent context.Context) (context.Context, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	a.gen++
	a.cancel = cancel
	return ctx, a.gen
}

// scope returns a context tied to the current activation, for calls made
// after Activate (slip selection, submit).
func (a *activation) scope(parent context.Context) (context.Context, uint64, context.CancelFunc) {
	a.mu.Lock()
	gen := a.gen
	active := a.cancel != nil
	a.mu.Unlock()
	ctx, cancel := context.WithCancel(parent)
	if !active {
		cancel()
	}
	return ctx, gen, cancel
}

func (a *activation) current(gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil && a.gen == gen
}

func (a *activation) end() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.gen++
}
