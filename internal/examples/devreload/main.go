// Demonstrates the autoreload bridge end to end in a single process: the
// control-plane server, the script-injecting middleware, and a worker
// readiness notification fed through a lifecycle watcher.
//
// Run it, open http://127.0.0.1:3000/, then restart the process: the tab
// reloads on its own.
package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-glint/glint"
	g "maragu.dev/gomponents"
	gh "maragu.dev/gomponents/html"
)

// Minimal reload client: connect to the feed, reload on the first message.
const autoreloadJS = `(() => {
  const url = document.currentScript.dataset.wsUrl;
  if (!url) return;
  new WebSocket(url).onmessage = () => location.reload();
})();`

func page() g.Node {
	return gh.Doctype(
		gh.HTML(
			gh.Head(
				gh.TitleEl(g.Text("Glint devreload")),
			),
			gh.Body(
				gh.H1(g.Text("Glint devreload")),
				gh.P(g.Textf("Process started at %s — restart it and watch this tab reload.",
					time.Now().Format(time.Kitchen))),
			),
		),
	)
}

func main() {
	srv, err := glint.StartServer(glint.Options{AppPort: 3000, LaunchBrowser: true})
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}
	defer srv.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /__shared/glint-autoreload.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte(autoreloadJS))
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		var b bytes.Buffer
		if err := page().Render(&b); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(b.Len()))
		_, _ = w.Write(b.Bytes())
	})

	handler := glint.InjectReloadScriptHTTP(glint.AutoreloadURL())(mux)

	// Stand-in for the process supervisor's log stream: announce readiness
	// once the listener has had a moment to come up.
	watcher := glint.NewLifecycleWatcher(glint.LifecycleHooks{})
	go func() {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprintln(watcher, "INFO:     Application startup complete.")
	}()

	log.Fatalf("[fatal] %v", http.ListenAndServe(":3000", handler))
}
