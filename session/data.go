package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// Store holds session-scoped values for all live sessions, keyed by session
// ID. Values set through one module scope are visible to every scope of the
// same session, so a login performed by an auth module is seen by the whole
// page. A Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state map[string]map[string]any
}

func NewStore() *Store {
	return &Store{state: make(map[string]map[string]any)}
}

// Drop removes every value held for the session, typically on disconnect.
func (st *Store) Drop(s Session) {
	st.mu.Lock()
	delete(st.state, s.Root().ID())
	st.mu.Unlock()
}

// Handle provides typed access to one session-scoped value in a Store.
// The value type T is defined by the application.
type Handle[T any] struct {
	id string
}

// NewHandle creates a handle for a session-scoped value. Each handle owns a
// distinct slot; two handles of the same type never alias.
func NewHandle[T any]() *Handle[T] {
	return &Handle[T]{id: genSlotID()}
}

// Get returns the value stored for the session and whether one has been set.
func (h *Handle[T]) Get(st *Store, s Session) (T, bool) {
	var zero T

	st.mu.RLock()
	defer st.mu.RUnlock()

	if data, ok := st.state[s.Root().ID()]; ok {
		if val, ok := data[h.id]; ok {
			return val.(T), true
		}
	}
	return zero, false
}

// Set stores a value for the session.
func (h *Handle[T]) Set(st *Store, s Session, value T) {
	id := s.Root().ID()

	st.mu.Lock()
	if st.state[id] == nil {
		st.state[id] = make(map[string]any)
	}
	st.state[id][h.id] = value
	st.mu.Unlock()
}

// Clear removes the value for the session.
func (h *Handle[T]) Clear(st *Store, s Session) {
	st.mu.Lock()
	if data, ok := st.state[s.Root().ID()]; ok {
		delete(data, h.id)
	}
	st.mu.Unlock()
}

func genSlotID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
