package pipeline

import (
	"fmt"
	"net/http"
)

// FromHTTP adapts a net/http handler into an event-emitting Handler. Each
// Write on the response writer becomes a body chunk with More set; when the
// handler returns, a final empty chunk with More unset closes the stream.
func FromHTTP(h http.Handler) Handler {
	return HandlerFunc(func(send SendFunc, r *http.Request) error {
		ew := &eventWriter{send: send, header: make(http.Header)}
		h.ServeHTTP(ew, r)
		if ew.err != nil {
			return ew.err
		}
		// Handlers that never write still produce a start event.
		if err := ew.start(); err != nil {
			return err
		}
		return ew.send(&BodyChunk{More: false})
	})
}

// eventWriter is the http.ResponseWriter shim behind FromHTTP.
type eventWriter struct {
	send    SendFunc
	header  http.Header
	started bool
	err     error
}

func (w *eventWriter) Header() http.Header {
	return w.header
}

func (w *eventWriter) WriteHeader(status int) {
	if w.started || w.err != nil {
		return
	}
	w.started = true
	w.err = w.send(&ResponseStart{Status: status, Header: w.header.Clone()})
}

func (w *eventWriter) start() error {
	if !w.started {
		w.WriteHeader(http.StatusOK)
	}
	return w.err
}

func (w *eventWriter) Write(p []byte) (int, error) {
	if err := w.start(); err != nil {
		return 0, err
	}
	// The caller may reuse p after Write returns.
	body := make([]byte, len(p))
	copy(body, p)
	if err := w.send(&BodyChunk{Body: body, More: true}); err != nil {
		w.err = err
		return 0, err
	}
	return len(p), nil
}

// ToHTTP adapts an event-emitting Handler back onto a plain ResponseWriter,
// flushing after every chunk that announces more data to keep streamed
// responses streaming.
func ToHTTP(h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wroteHeader := false
		err := h.ServeEvents(func(ev Event) error {
			switch e := ev.(type) {
			case *ResponseStart:
				if wroteHeader {
					return fmt.Errorf("pipeline: duplicate response start event")
				}
				dst := w.Header()
				for k, vs := range e.Header {
					dst[k] = vs
				}
				w.WriteHeader(e.Status)
				wroteHeader = true
			case *BodyChunk:
				if !wroteHeader {
					return fmt.Errorf("pipeline: body chunk before response start event")
				}
				if len(e.Body) > 0 {
					if _, err := w.Write(e.Body); err != nil {
						return err
					}
				}
				if e.More {
					if f, ok := w.(http.Flusher); ok {
						f.Flush()
					}
				}
			}
			return nil
		}, r)
		if err != nil && !wroteHeader {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})
}
