// Package glint provides the developer autoreload bridge of the Glint
// reactive web framework: a private control-plane server that tells connected
// browser tabs when a supervised worker process has finished (re)starting,
// and the response middleware that splices the reload client script into the
// served HTML document.
//
// The bridge has two sides. The parent (supervisor) process calls StartServer,
// which binds a loopback-only websocket listener and publishes its port and a
// shared secret to the environment. The worker process inherits that
// environment; when it finishes starting up it calls NotifyReloadEnd (directly
// or via a LifecycleWatcher scanning its supervisor's log output), and every
// browser tab blocked on the /autoreload feed receives one "autoreload"
// message.
package glint

import (
	"crypto/rand"
	"encoding/hex"
)

// genSecret returns a fresh high-entropy token, generated once per parent
// process lifetime and shared with workers through the environment.
func genSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
