package glint

import (
	"net/http"
	"strconv"

	"github.com/go-glint/glint/pipeline"
)

// RewriteFunc inspects all body bytes seen so far and returns the (possibly
// modified) bytes plus done=true once it does not care to see any more data.
// It is called again with the full accumulated body after every chunk, so it
// must be a pure function of its input.
type RewriteFunc func(body []byte) (rewritten []byte, done bool)

// ContentRewriter intercepts a streamed response so a RewriteFunc can modify
// the body before anything reaches the downstream sink. This would be easy if
// not for two things: bodies may arrive as several chunks, and the
// Content-Length header travels in the start event, which is emitted before
// the rewrite that can change it. The rewriter buffers the start event and
// the body until the rewrite reports done (or the body ends), corrects the
// declared length by the exact delta, and only then releases the start event
// followed by the full buffered body. Everything after that first flush is
// passed through untouched.
//
// One ContentRewriter serves exactly one response and must not be shared.
type ContentRewriter struct {
	send    pipeline.SendFunc
	rewrite RewriteFunc
	done    bool
	start   *pipeline.ResponseStart
	body    []byte
}

func NewContentRewriter(send pipeline.SendFunc, rewrite RewriteFunc) *ContentRewriter {
	return &ContentRewriter{send: send, rewrite: rewrite}
}

// Send observes one response event. It accepts a single start event followed
// by one or more body chunks; a body chunk before the start event is a
// contract violation in the surrounding pipeline and panics.
func (cr *ContentRewriter) Send(ev pipeline.Event) error {
	if cr.done {
		return cr.send(ev)
	}

	switch e := ev.(type) {
	case *pipeline.ResponseStart:
		cr.start = e
	case *pipeline.BodyChunk:
		if cr.start == nil {
			panic("glint: response body event sent before response start event")
		}

		cr.body = append(cr.body, e.Body...)
		oldLen := len(cr.body)
		body, done := cr.rewrite(cr.body)
		cr.body = body

		if delta := len(cr.body) - oldLen; delta != 0 {
			addToContentLength(cr.start.Header, delta)
		}

		if done || !e.More {
			// Either the rewrite has seen all it cares to, or the body is
			// complete. Release the corrected start event and everything
			// buffered; later events flow straight through.
			cr.done = true
			if err := cr.send(cr.start); err != nil {
				return err
			}
			err := cr.send(&pipeline.BodyChunk{Body: cr.body, More: e.More})
			cr.start = nil
			cr.body = nil
			return err
		}
	}
	return nil
}

// addToContentLength adds delta (possibly negative) to a declared
// Content-Length header. Responses without one are left untouched.
func addToContentLength(h http.Header, delta int) {
	v := h.Get("Content-Length")
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	h.Set("Content-Length", strconv.Itoa(n+delta))
}
