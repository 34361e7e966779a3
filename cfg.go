package glint

import "strings"

type LogLevel int

const (
	undefined LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// parseLogLevel maps a GLINT_AUTORELOAD_LOG_LEVEL value to a LogLevel.
// Unknown or empty values keep the control server quiet: errors only.
func parseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "warning":
		return LogLevelWarn
	case "info":
		return LogLevelInfo
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

// Options defines configuration options for the autoreload control server.
type Options struct {
	// Port is the control-plane port. It must differ from the application
	// port. 0 picks a free port; the chosen port is published to the
	// environment either way.
	Port int

	// AppPort is the port of the main application server, used to build the
	// URL that plain HTTP probes are redirected to.
	AppPort int

	// AppURL overrides the externally visible application URL. When empty it
	// is derived from AppPort.
	AppURL string

	// LaunchBrowser opens AppURL in a local browser after the first
	// successful worker start. Subsequent reloads never reopen it.
	LaunchBrowser bool

	// LogLvl is the verbosity of the control server's transport logging.
	// The zero value defers to GLINT_AUTORELOAD_LOG_LEVEL (default: errors
	// only).
	LogLvl LogLevel
}
