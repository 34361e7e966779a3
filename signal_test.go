package glint

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSignal_PulseWakesAllWaiters verifies one pulse wakes every parked waiter
func TestSignal_PulseWakesAllWaiters(t *testing.T) {
	s := NewSignal()
	const n = 8

	var parked, woken sync.WaitGroup
	parked.Add(n)
	woken.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			parked.Done()
			assert.NoError(t, s.Wait(context.Background()))
			woken.Done()
		}()
	}

	parked.Wait()
	time.Sleep(50 * time.Millisecond) // let every goroutine reach Wait

	s.Pulse()

	done := make(chan struct{})
	go func() {
		woken.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all waiters woken by a single pulse")
	}
}

// TestSignal_NoHistory verifies a pulse with no waiters leaves nothing behind
func TestSignal_NoHistory(t *testing.T) {
	s := NewSignal()
	s.Pulse()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestSignal_ReusableAcrossPulses verifies the same signal serves repeated restarts
func TestSignal_ReusableAcrossPulses(t *testing.T) {
	s := NewSignal()

	for i := 0; i < 3; i++ {
		woken := make(chan error, 1)
		go func() {
			woken <- s.Wait(context.Background())
		}()

		time.Sleep(50 * time.Millisecond)
		s.Pulse()

		select {
		case err := <-woken:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatalf("waiter not woken on pulse %d", i+1)
		}
	}
}

// TestSignal_WaitHonorsContext verifies cancellation releases a waiter
func TestSignal_WaitHonorsContext(t *testing.T) {
	s := NewSignal()

	ctx, cancel := context.WithCancel(context.Background())
	woken := make(chan error, 1)
	go func() {
		woken <- s.Wait(ctx)
	}()

	cancel()
	select {
	case err := <-woken:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after context cancellation")
	}
}
