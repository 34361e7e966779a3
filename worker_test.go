package glint_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-glint/glint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLifecycleWatcher_DetectsTransitions verifies the default markers fire
// the right hooks, including lines split across writes
func TestLifecycleWatcher_DetectsTransitions(t *testing.T) {
	var begins, ends int
	w := glint.NewLifecycleWatcher(glint.LifecycleHooks{
		ReloadBegin: func() { begins++ },
		ReloadEnd:   func() { ends++ },
	})

	fmt.Fprintln(w, "WARNING:  WatchFiles detected changes. Reloading...")
	assert.Equal(t, 1, begins)
	assert.Equal(t, 0, ends)

	// Startup line arrives in two pieces.
	fmt.Fprint(w, "INFO:     Application startup")
	assert.Equal(t, 0, ends)
	fmt.Fprint(w, " complete.\n")
	assert.Equal(t, 1, ends)
}

// TestLifecycleWatcher_IgnoresOtherLines verifies ordinary log output fires
// nothing
func TestLifecycleWatcher_IgnoresOtherLines(t *testing.T) {
	fired := false
	w := glint.NewLifecycleWatcher(glint.LifecycleHooks{
		ReloadBegin: func() { fired = true },
		ReloadEnd:   func() { fired = true },
	})

	fmt.Fprintln(w, "INFO:     GET / 200 OK")
	fmt.Fprintln(w, "INFO:     Uvicorn running on http://127.0.0.1:8000")

	assert.False(t, fired)
}

// TestLifecycleWatcher_CustomMarkers verifies marker overrides for
// supervisors with different log output
func TestLifecycleWatcher_CustomMarkers(t *testing.T) {
	var ends int
	w := glint.NewLifecycleWatcher(glint.LifecycleHooks{
		ReloadEnd:     func() { ends++ },
		StartupMarker: "listening on",
	})

	fmt.Fprintln(w, "server listening on :3000")
	assert.Equal(t, 1, ends)
}

// TestNotifyReloadEnd_DisabledWithoutPort verifies a worker without the
// inherited port treats autoreload as disabled
func TestNotifyReloadEnd_DisabledWithoutPort(t *testing.T) {
	t.Setenv(glint.EnvPort, "")
	t.Setenv(glint.EnvSecret, "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, glint.NotifyReloadEnd(ctx))
}

// TestNotifyReloadEnd_RoundTrip runs the worker side against a real control
// server: the inherited environment is enough to wake a waiting tab
func TestNotifyReloadEnd_RoundTrip(t *testing.T) {
	srv := startTestServer(t, glint.Options{AppPort: 3000})

	tab := dialAutoreload(t, srv)
	time.Sleep(settleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, glint.NotifyReloadEnd(ctx))
	time.Sleep(settleTime)

	expectMessage(t, tab, "autoreload")
}

// TestNotifyReloadEnd_DialFailureIsAnError verifies a dead control server
// surfaces as a loggable, non-fatal error
func TestNotifyReloadEnd_DialFailureIsAnError(t *testing.T) {
	srv := startTestServer(t, glint.Options{AppPort: 3000})
	require.NoError(t, srv.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, glint.NotifyReloadEnd(ctx))
}
