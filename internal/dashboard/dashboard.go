// Package dashboard holds the per-role screen controllers. Every
// controller runs the session guard on activation, then fetches and keeps
// the state its screen renders.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cstrack/cstrack-client/internal/api"
	"github.com/cstrack/cstrack-client/internal/session"
)

// Deps are shared by all controllers.
type Deps struct {
	Guard  *session.Guard
	API    *api.Client
	Cache  *api.Cache
	Logger *slog.Logger
}

// base carries the guard/fetch plumbing common to every controller.
type base struct {
	deps   Deps
	logger *slog.Logger
	act    activation

	mu     sync.Mutex
	state  session.State
	errMsg string
	auth   session.Authorized
	client *api.Client
}

func newBase(deps Deps, name string) base {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return base{deps: deps, logger: logger.With("dashboard", name), state: session.StateStart}
}

// authorize starts a new activation and runs the guard. On failure the
// guard has already logged the user out.
func (b *base) authorize(parent context.Context, role session.Role) (context.Context, uint64, error) {
	ctx, gen := b.act.begin(parent)
	b.setState(session.StateDecoding, "")

	auth, err := b.deps.Guard.Authorize(ctx, role)
	if err != nil {
		b.act.end()
		b.setState(session.StateLoggedOut, session.Message(err))
		return nil, 0, err
	}
	if !b.act.current(gen) {
		return nil, 0, ErrInactive
	}

	client := b.deps.API.WithToken(auth.Token).WithCache(b.deps.Cache)
	b.mu.Lock()
	b.auth = auth
	b.client = client
	b.state = session.StateAuthorized
	b.mu.Unlock()
	return ctx, gen, nil
}

// fetchFailed converts a fetch error into display state. A 401/403 means
// the backend no longer accepts the token, so the session is ended.
func (b *base) fetchFailed(ctx context.Context, gen uint64, err error, fallback string) error {
	if errors.Is(err, context.Canceled) || !b.act.current(gen) {
		return ErrInactive
	}
	if api.IsUnauthorized(err) {
		b.logger.Warn("backend rejected session", "err", err)
		b.logout(ctx)
		return err
	}
	b.logger.Error("fetch failed", "err", err)
	b.setError(api.Message(err, fallback))
	return err
}

func (b *base) logout(ctx context.Context) {
	b.act.end()
	b.deps.Guard.Logout(context.WithoutCancel(ctx))
	b.setState(session.StateLoggedOut, "Your session has expired. Please log in again.")
}

func (b *base) deactivate() {
	b.act.end()
	b.mu.Lock()
	if b.state != session.StateLoggedOut {
		b.state = session.StateStart
	}
	b.errMsg = ""
	b.mu.Unlock()
}

func (b *base) setState(s session.State, msg string) {
	b.mu.Lock()
	b.state = s
	b.errMsg = msg
	b.mu.Unlock()
}

func (b *base) setError(msg string) {
	b.mu.Lock()
	b.errMsg = msg
	b.mu.Unlock()
}

func (b *base) backend() *api.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client
}

func (b *base) subject() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.auth.SubjectID
}
