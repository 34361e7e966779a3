package glint

import (
	"bytes"
	"net/http"

	"github.com/go-glint/glint/pipeline"
	"github.com/gorilla/websocket"
	g "maragu.dev/gomponents"
	gh "maragu.dev/gomponents/html"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

var headCloseMarker = []byte("</head>")

// scriptFragment renders the reload client script tag pointing at wsURL.
// Injection happens through middleware rather than a document include so the
// reload client stays effective even when an error page is being served.
func scriptFragment(wsURL string) []byte {
	if wsURL == "" {
		return nil
	}
	var b bytes.Buffer
	node := gh.Script(
		gh.Src("__shared/glint-autoreload.js"),
		g.Attr("data-ws-url", wsURL),
	)
	if err := node.Render(&b); err != nil {
		return nil
	}
	fragment := append([]byte("  "), b.Bytes()...)
	return append(fragment, '\n')
}

// headSplice returns a RewriteFunc that splices fragment immediately before
// the first occurrence of the closing head tag and reports done. While the
// marker has not appeared it reports not-done with the body unmodified, so a
// marker-less document is released unchanged once its input ends.
func headSplice(fragment []byte) RewriteFunc {
	return func(body []byte) ([]byte, bool) {
		i := bytes.Index(body, headCloseMarker)
		if i < 0 {
			return body, false
		}
		out := make([]byte, 0, len(body)+len(fragment))
		out = append(out, body[:i]...)
		out = append(out, fragment...)
		out = append(out, body[i:]...)
		return out, true
	}
}

// InjectReloadScript wraps next so the reload client script tag is spliced
// into the root HTML document just before </head>, with the declared
// Content-Length corrected to match. Requests for other paths, non-GET
// requests, and upgrade requests pass through untouched; an empty wsURL
// (autoreload disabled) makes the middleware a no-op.
func InjectReloadScript(wsURL string, next pipeline.Handler) pipeline.Handler {
	fragment := scriptFragment(wsURL)
	if len(fragment) == 0 {
		return next
	}
	return pipeline.HandlerFunc(func(send pipeline.SendFunc, r *http.Request) error {
		if r.Method != http.MethodGet || r.URL.Path != "/" || websocket.IsWebSocketUpgrade(r) {
			return next.ServeEvents(send, r)
		}
		rewriter := NewContentRewriter(send, headSplice(fragment))
		return next.ServeEvents(rewriter.Send, r)
	})
}

// InjectReloadScriptHTTP adapts InjectReloadScript to a plain http middleware
// chain. Non-matching requests bypass the event pipeline entirely.
func InjectReloadScriptHTTP(wsURL string) Middleware {
	return func(next http.Handler) http.Handler {
		if scriptFragment(wsURL) == nil {
			return next
		}
		wrapped := pipeline.ToHTTP(InjectReloadScript(wsURL, pipeline.FromHTTP(next)))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/" || websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}
