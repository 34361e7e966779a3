// Package session provides session identity and hierarchical module
// namespacing for Glint applications.
//
// A module is a reusable unit of UI and server logic mounted under a
// namespace. Ids resolved through a module's session scope are prefixed with
// the dash-joined chain of enclosing namespaces, outermost first, so the
// server-side wiring and the client-rendered element ids always agree for the
// same (module path, local id) pair.
package session

// Session identifies one live connection between a browser and the server
// and resolves local ids into the session's module namespace.
type Session interface {
	// ID returns the session identifier.
	ID() string
	// Ns resolves a local id into its fully namespaced form for this scope.
	Ns(id string) string
	// Root returns the outermost session in the module chain.
	Root() Session
}

// New creates a root session. Ids resolved through a root session are
// returned unchanged.
func New(id string) Session {
	return &rootSession{id: id}
}

type rootSession struct {
	id string
}

func (s *rootSession) ID() string        { return s.id }
func (s *rootSession) Ns(id string) string { return id }
func (s *rootSession) Root() Session     { return s }

// MakeScope returns a session proxy scoped to the given module namespace.
// Scopes nest: a scope created from another scope resolves ids through the
// whole enclosing chain.
func MakeScope(parent Session, ns string) Session {
	return &scopedSession{parent: parent, ns: ns}
}

type scopedSession struct {
	parent Session
	ns     string
}

func (s *scopedSession) ID() string { return s.parent.ID() }

func (s *scopedSession) Ns(id string) string {
	return s.parent.Ns(resolve(s.ns, id))
}

func (s *scopedSession) Root() Session { return s.parent.Root() }

const nsSep = "-"

func resolve(ns, id string) string {
	if ns == "" {
		return id
	}
	return ns + nsSep + id
}
