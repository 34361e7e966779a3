// Package pipeline models a streamed HTTP response as a response-start event
// followed by one or more body-chunk events. The split representation lets
// middleware intercept and rewrite bodies that arrive in pieces while still
// controlling the headers that precede them.
package pipeline

import "net/http"

// Event is one phase of a streamed response: either a *ResponseStart or a
// *BodyChunk.
type Event interface {
	isEvent()
}

// ResponseStart carries the status and headers of a response. It is emitted
// exactly once, strictly before any body chunk.
type ResponseStart struct {
	Status int
	Header http.Header
}

func (*ResponseStart) isEvent() {}

// BodyChunk carries one piece of the response body. More reports whether
// further chunks follow.
type BodyChunk struct {
	Body []byte
	More bool
}

func (*BodyChunk) isEvent() {}

// SendFunc delivers one response event downstream.
type SendFunc func(Event) error

// Handler serves a request by emitting response events to send.
type Handler interface {
	ServeEvents(send SendFunc, r *http.Request) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(send SendFunc, r *http.Request) error

func (f HandlerFunc) ServeEvents(send SendFunc, r *http.Request) error {
	return f(send, r)
}
