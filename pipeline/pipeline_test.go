package pipeline

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, h Handler, r *http.Request) []Event {
	t.Helper()
	var events []Event
	err := h.ServeEvents(func(ev Event) error {
		events = append(events, ev)
		return nil
	}, r)
	require.NoError(t, err)
	return events
}

// TestFromHTTP_EventSequence verifies a writing handler produces start, one
// chunk per write, and a closing empty chunk
func TestFromHTTP_EventSequence(t *testing.T) {
	h := FromHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("one"))
		_, _ = w.Write([]byte("two"))
	}))

	events := collect(t, h, httptest.NewRequest("GET", "/", nil))
	require.Len(t, events, 4)

	start, ok := events[0].(*ResponseStart)
	require.True(t, ok)
	assert.Equal(t, http.StatusTeapot, start.Status)
	assert.Equal(t, "text/plain", start.Header.Get("Content-Type"))

	first := events[1].(*BodyChunk)
	assert.Equal(t, "one", string(first.Body))
	assert.True(t, first.More)

	second := events[2].(*BodyChunk)
	assert.Equal(t, "two", string(second.Body))
	assert.True(t, second.More)

	last := events[3].(*BodyChunk)
	assert.Empty(t, last.Body)
	assert.False(t, last.More)
}

// TestFromHTTP_EmptyBody verifies a handler that never writes still yields a
// start and a closing chunk
func TestFromHTTP_EmptyBody(t *testing.T) {
	h := FromHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	events := collect(t, h, httptest.NewRequest("GET", "/", nil))
	require.Len(t, events, 2)

	start := events[0].(*ResponseStart)
	assert.Equal(t, http.StatusOK, start.Status)

	last := events[1].(*BodyChunk)
	assert.False(t, last.More)
}

// TestFromHTTP_HeaderSnapshot verifies headers mutated after the first write
// do not leak into the already-emitted start event
func TestFromHTTP_HeaderSnapshot(t *testing.T) {
	h := FromHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Before", "yes")
		_, _ = w.Write([]byte("body"))
		w.Header().Set("X-After", "too late")
	}))

	events := collect(t, h, httptest.NewRequest("GET", "/", nil))
	start := events[0].(*ResponseStart)
	assert.Equal(t, "yes", start.Header.Get("X-Before"))
	assert.Empty(t, start.Header.Get("X-After"))
}

// TestToHTTP_WritesResponse verifies events are rendered onto a plain
// response writer
func TestToHTTP_WritesResponse(t *testing.T) {
	h := HandlerFunc(func(send SendFunc, r *http.Request) error {
		header := make(http.Header)
		header.Set("Content-Type", "text/html")
		if err := send(&ResponseStart{Status: http.StatusAccepted, Header: header}); err != nil {
			return err
		}
		if err := send(&BodyChunk{Body: []byte("<p>hi"), More: true}); err != nil {
			return err
		}
		return send(&BodyChunk{Body: []byte("</p>"), More: false})
	})

	w := httptest.NewRecorder()
	ToHTTP(h).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "text/html", w.Header().Get("Content-Type"))
	assert.Equal(t, "<p>hi</p>", w.Body.String())
	assert.True(t, w.Flushed)
}

// TestToHTTP_BodyBeforeStart verifies a contract violation surfaces as a 500
// when nothing has been written yet
func TestToHTTP_BodyBeforeStart(t *testing.T) {
	h := HandlerFunc(func(send SendFunc, r *http.Request) error {
		return send(&BodyChunk{Body: []byte("oops"), More: false})
	})

	w := httptest.NewRecorder()
	ToHTTP(h).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestToHTTP_DuplicateStart verifies a second start event aborts the stream
func TestToHTTP_DuplicateStart(t *testing.T) {
	var secondErr error
	h := HandlerFunc(func(send SendFunc, r *http.Request) error {
		_ = send(&ResponseStart{Status: http.StatusOK, Header: make(http.Header)})
		secondErr = send(&ResponseStart{Status: http.StatusOK, Header: make(http.Header)})
		return secondErr
	})

	w := httptest.NewRecorder()
	ToHTTP(h).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Error(t, secondErr)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestRoundTrip verifies FromHTTP followed by ToHTTP reproduces the original
// response
func TestRoundTrip(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "v")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("streamed "))
		_, _ = w.Write([]byte("content"))
	})

	w := httptest.NewRecorder()
	ToHTTP(FromHTTP(inner)).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "v", w.Header().Get("X-Custom"))
	assert.Equal(t, "streamed content", w.Body.String())
}
