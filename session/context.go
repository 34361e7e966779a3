package session

import (
	"context"
	"errors"
)

type ctxKey struct{}

// ErrNoActiveSession is returned by RequireActive outside a session scope.
var ErrNoActiveSession = errors.New("session: no active session in context")

// WithCurrent returns a context carrying s as the current session. Deeply
// nested calls can recover it with Current without explicit parameter
// threading, and concurrently executing sessions stay isolated because each
// request carries its own context chain. The previous current session is
// restored automatically when the derived context goes out of scope.
func WithCurrent(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Current returns the current session, if any.
func Current(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// RequireActive returns the current session or ErrNoActiveSession when called
// outside an active session scope.
func RequireActive(ctx context.Context) (Session, error) {
	if s, ok := Current(ctx); ok {
		return s, nil
	}
	return nil, ErrNoActiveSession
}

// ResolveID resolves id within the current session's namespace. Outside a
// session scope the id is returned unchanged, matching a root session.
func ResolveID(ctx context.Context, id string) string {
	if s, ok := Current(ctx); ok {
		return s.Ns(id)
	}
	return id
}
