// Package session implements the client-side role guard run by every
// protected dashboard before it fetches data.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cstrack/cstrack-client/internal/credstore"
)

// Navigator performs the single navigation transition the guard needs.
type Navigator interface {
	ToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) ToLogin() { f() }

// State is the guard's position in the per-activation state machine.
type State string

const (
	StateStart      State = "start"
	StateDecoding   State = "decoding"
	StateAuthorized State = "authorized"
	StateActive     State = "active"
	StateLoggedOut  State = "logged_out"
)

// Authorized is the context a dashboard uses for its guarded fetches.
type Authorized struct {
	Role      Role
	SubjectID string
	Token     string
	ExpiresAt time.Time
}

// Guard gates role-specific screens on the stored bearer token.
type Guard struct {
	Store     credstore.Store
	Navigator Navigator
	Secret    string
	Now       func() time.Time
	Logger    *slog.Logger
}

func NewGuard(store credstore.Store, nav Navigator, secret string, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{Store: store, Navigator: nav, Secret: secret, Now: time.Now, Logger: logger}
}

// Authorize runs once per screen activation. On any failure it logs the
// user out and returns one of ErrSessionMissing, ErrTokenMalformed,
// ErrTokenExpired or ErrRoleMismatch (possibly wrapped).
func (g *Guard) Authorize(ctx context.Context, required Role) (Authorized, error) {
	auth, err := g.check(ctx, required)
	if err != nil {
		g.Logger.Warn("session rejected", "required", required.String(), "err", err)
		g.Logout(ctx)
		return Authorized{}, err
	}
	return auth, nil
}

func (g *Guard) check(ctx context.Context, required Role) (Authorized, error) {
	token, err := g.read(ctx, credstore.KeyToken)
	if err != nil {
		return Authorized{}, err
	}
	tag, err := g.read(ctx, credstore.KeyRole)
	if err != nil {
		return Authorized{}, err
	}

	claims, err := DecodeClaims(token, g.Secret)
	if err != nil {
		return Authorized{}, err
	}
	if claims.Expired(g.now()) {
		return Authorized{}, fmt.Errorf("%w: exp %s", ErrTokenExpired, claims.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if stored := ParseRole(tag); stored != required || claims.Role != required {
		return Authorized{}, fmt.Errorf("%w: need %s, stored %s, token %s", ErrRoleMismatch, required, stored, claims.Role)
	}

	subject, err := g.read(ctx, required.SubjectKey())
	if err != nil {
		return Authorized{}, err
	}
	return Authorized{Role: required, SubjectID: subject, Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

func (g *Guard) read(ctx context.Context, key string) (string, error) {
	v, ok, err := g.Store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, credstore.ErrCorrupt) {
			return "", fmt.Errorf("%w: %v", ErrSessionMissing, err)
		}
		return "", fmt.Errorf("%w: read %s: %v", ErrSessionMissing, key, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: no %s", ErrSessionMissing, key)
	}
	return v, nil
}

// Logout clears every stored credential and returns the app to the login
// screen. A failed clear is logged and navigation still happens.
func (g *Guard) Logout(ctx context.Context) {
	if err := g.Store.Clear(ctx); err != nil {
		g.Logger.Error("clear credentials failed", "err", err)
	}
	if g.Navigator != nil {
		g.Navigator.ToLogin()
	}
}

func (g *Guard) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}
