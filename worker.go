package glint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Default lifecycle markers in the process supervisor's log output. Matching
// log lines is a best-effort heuristic for supervisors we do not control;
// supervisors that can signal directly should call NotifyReloadEnd instead.
const (
	reloadingMarker = "Reloading..."
	startupMarker   = "Application startup complete."
)

// ReloadingLine is a canonical supervisor log line announcing a restart.
// Supervisors that drive the restart themselves can feed it to a
// LifecycleWatcher to fire the begin hook.
const ReloadingLine = reloadingMarker

const notifyTimeout = 5 * time.Second

// LifecycleHooks configures a LifecycleWatcher. Zero-value fields fall back
// to the defaults: ReloadBegin for the begin hook, a fire-and-forget
// NotifyReloadEnd for the end hook, and the standard log markers.
type LifecycleHooks struct {
	// ReloadBegin runs when the old worker instance starts shutting down.
	ReloadBegin func()
	// ReloadEnd runs when the new worker instance has finished starting.
	ReloadEnd func()
	// ReloadingMarker and StartupMarker override the log-line substrings
	// that trigger the hooks.
	ReloadingMarker string
	StartupMarker   string
}

// LifecycleWatcher scans a worker supervisor's log stream for restart
// transitions. It implements io.Writer so it can sit in a MultiWriter behind
// the supervisor's normal log output.
type LifecycleWatcher struct {
	begin     func()
	end       func()
	reloading string
	startup   string
	buf       []byte
}

func NewLifecycleWatcher(hooks LifecycleHooks) *LifecycleWatcher {
	w := &LifecycleWatcher{
		begin:     hooks.ReloadBegin,
		end:       hooks.ReloadEnd,
		reloading: hooks.ReloadingMarker,
		startup:   hooks.StartupMarker,
	}
	if w.begin == nil {
		w.begin = ReloadBegin
	}
	if w.end == nil {
		w.end = func() {
			// Fire and forget so notification can never block or crash the
			// worker's own request-serving loop.
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
				defer cancel()
				_ = NotifyReloadEnd(ctx)
			}()
		}
	}
	if w.reloading == "" {
		w.reloading = reloadingMarker
	}
	if w.startup == "" {
		w.startup = startupMarker
	}
	return w
}

// Write accumulates stream data and scans each completed line.
func (w *LifecycleWatcher) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := string(w.buf[:i])
		w.buf = w.buf[i+1:]
		w.Scan(line)
	}
}

// Scan inspects a single lifecycle log line and fires the matching hook.
func (w *LifecycleWatcher) Scan(line string) {
	switch {
	case strings.Contains(line, w.reloading):
		w.begin()
	case strings.Contains(line, w.startup):
		w.end()
	}
}

// ReloadBegin runs when the old worker instance is shut down. It is a
// reserved extension point and currently does nothing.
func ReloadBegin() {}

// NotifyReloadEnd announces a completed worker (re)start to the control-plane
// server: it opens a short-lived connection to the /notify endpoint,
// presenting the inherited secret, and sends one reload_end message. It is a
// no-op when autoreload is disabled (no port in the environment). Delivery is
// best effort — a peer that closes early is not an error, and callers should
// log any returned error rather than treat it as fatal.
func NotifyReloadEnd(ctx context.Context) error {
	env := readWorkerEnv()
	if env.Port == 0 {
		return nil
	}

	url := fmt.Sprintf("ws://127.0.0.1:%d/notify", env.Port)
	header := http.Header{}
	header.Set(SecretHeader, env.Secret)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("autoreload notify dial: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(reloadEndMessage)); err != nil {
		if isClosedConn(err) {
			return nil
		}
		return fmt.Errorf("autoreload notify send: %w", err)
	}
	return nil
}

func isClosedConn(err error) bool {
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, websocket.ErrCloseSent)
}
