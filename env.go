package glint

import (
	"fmt"

	"github.com/joeshaw/envdecode"
)

// Environment variables shared between the supervisor and its worker
// processes. StartServer publishes them; workers inherit them. An absent
// port disables autoreload entirely on both sides.
const (
	EnvPort     = "GLINT_AUTORELOAD_PORT"
	EnvSecret   = "GLINT_AUTORELOAD_SECRET"
	EnvLogLevel = "GLINT_AUTORELOAD_LOG_LEVEL"
)

// SecretHeader carries the shared restart secret on /notify connections.
const SecretHeader = "Glint-Autoreload-Secret"

type workerEnv struct {
	Port     int    `env:"GLINT_AUTORELOAD_PORT,default=0"`
	Secret   string `env:"GLINT_AUTORELOAD_SECRET,default="`
	LogLevel string `env:"GLINT_AUTORELOAD_LOG_LEVEL,default=error"`
}

func readWorkerEnv() workerEnv {
	var e workerEnv
	// Defaults are provided via struct tags; a malformed port leaves the
	// zero value, which reads as "autoreload disabled".
	_ = envdecode.Decode(&e)
	return e
}

// AutoreloadURL returns the websocket URL browser clients should connect to
// for reload notifications, or "" when autoreload is disabled for this
// process.
func AutoreloadURL() string {
	e := readWorkerEnv()
	if e.Port == 0 {
		return ""
	}
	return fmt.Sprintf("ws://127.0.0.1:%d/autoreload", e.Port)
}
