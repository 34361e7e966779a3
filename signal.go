package glint

import (
	"context"
	"sync"
)

// Signal is a momentary broadcast: one Pulse wakes every goroutine currently
// blocked in Wait, then immediately resets. There is no history — a waiter
// that arrives after a pulse blocks until the next one, and pulsing with no
// waiters has no lasting effect.
type Signal struct {
	mu sync.Mutex
	ch chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Wait blocks until the next Pulse, or until ctx is done, in which case the
// context's error is returned.
func (s *Signal) Wait(ctx context.Context) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pulse wakes all current waiters. Goroutines that call Wait afterwards are
// unaffected by this pulse.
func (s *Signal) Pulse() {
	s.mu.Lock()
	close(s.ch)
	s.ch = make(chan struct{})
	s.mu.Unlock()
}
