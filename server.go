package glint

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Protocol tokens on the reload control channel.
const (
	reloadMessage    = "autoreload"
	reloadEndMessage = "reload_end"
)

// Server is the control-plane server for developer autoreload. It listens on
// its own loopback-only port, separate from the main application listener,
// and speaks two websocket endpoints:
//
//   - /autoreload: browser tabs connect and block; each completed worker
//     (re)start pushes one "autoreload" text message to every tab.
//   - /notify: the worker process connects with the shared secret header and
//     sends "reload_end" to announce a completed start.
//
// Plain HTTP requests are redirected to the application URL so port sniffers
// and curious browsers get something sensible instead of an upgrade error.
type Server struct {
	cfg      Options
	log      leveledLogger
	appURL   string
	secret   string
	reload   *Signal
	launch   atomic.Bool
	open     func(url string) error
	upgrader websocket.Upgrader
	ln       net.Listener
	srv      *http.Server
}

// StartServer binds the control-plane listener and serves it on a background
// goroutine. The bound port and a freshly generated secret are published to
// the process environment (EnvPort, EnvSecret) so supervised worker processes
// inherit them. The returned Server does not keep the process alive; Close it
// for an orderly shutdown or let process exit take it down.
func StartServer(cfg Options) (*Server, error) {
	if cfg.LogLvl == undefined {
		cfg.LogLvl = parseLogLevel(os.Getenv(EnvLogLevel))
	}

	s := &Server{
		cfg:    cfg,
		log:    leveledLogger{lvl: cfg.LogLvl},
		secret: genSecret(),
		reload: NewSignal(),
		open:   openBrowser,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Loopback-only listener; the secret gates /notify.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.launch.Store(cfg.LaunchBrowser)

	s.appURL = cfg.AppURL
	if s.appURL == "" {
		s.appURL = fmt.Sprintf("http://127.0.0.1:%d/", cfg.AppPort)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("autoreload listen: %w", err)
	}
	s.ln = ln

	port := ln.Addr().(*net.TCPAddr).Port
	os.Setenv(EnvPort, strconv.Itoa(port))
	os.Setenv(EnvSecret, s.secret)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConn)
	s.srv = &http.Server{Handler: mux}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.errf("autoreload control server stopped: %v", err)
		}
	}()
	s.log.infof("autoreload control server listening on 127.0.0.1:%d", port)
	return s, nil
}

// Port returns the bound control-plane port.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// URL returns the websocket URL of the browser-facing push feed.
func (s *Server) URL() string {
	return fmt.Sprintf("ws://127.0.0.1:%d/autoreload", s.Port())
}

// Close shuts the control server down and drops all connections.
func (s *Server) Close() error {
	return s.srv.Close()
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	// A failure in one connection must never take down the accept loop or
	// the application server.
	defer func() {
		if rec := recover(); rec != nil {
			s.log.errf("autoreload connection handler: %v", rec)
		}
	}()

	if !websocket.IsWebSocketUpgrade(r) {
		http.Redirect(w, r, s.appURL, http.StatusMovedPermanently)
		return
	}

	switch r.URL.Path {
	case "/autoreload":
		s.serveAutoreload(w, r)
	case "/notify":
		s.serveNotify(w, r)
	default:
		// Unknown upgrade target: no handshake, no action.
		s.log.debugf("rejected upgrade to %q", r.URL.Path)
	}
}

// serveAutoreload blocks for the lifetime of one browser tab, pushing one
// text message per completed reload until the peer goes away.
func (s *Server) serveAutoreload(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.debugf("autoreload upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The client never sends application data; the read pump exists to
	// notice the tab closing so the waiter below can be released.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		if err := s.reload.Wait(ctx); err != nil {
			s.log.debugf("autoreload feed closed: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(reloadMessage)); err != nil {
			s.log.debugf("autoreload push ended: %v", err)
			return
		}
	}
}

// serveNotify authenticates a worker connection and, for a valid reload_end
// message, nudges every waiting browser tab.
func (s *Server) serveNotify(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.debugf("notify upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	secret := r.Header.Get(SecretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		// The peer could not prove it is our worker process. Drop the
		// connection without reading further and without any response
		// payload that could distinguish this from a dead server.
		return
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		s.log.debugf("notify read failed: %v", err)
		return
	}
	if string(msg) == reloadEndMessage {
		s.nudge()
	}
}

// nudge is shared by all notify connections: on the first successful start
// only, open the application in a local browser, then wake every autoreload
// waiter. The CompareAndSwap keeps the launch exactly-once even under
// concurrent notifications.
func (s *Server) nudge() {
	if s.launch.CompareAndSwap(true, false) {
		if err := s.open(s.appURL); err != nil {
			s.log.warnf("failed to open browser: %v", err)
		}
	}
	s.reload.Pulse()
}
