// Package runtime coordinates sessions, presence, and event fan-out.
// It orchestrates the relay without containing storage or transport logic.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"sync"
)

type entry struct {
	username string
	sink     contract.EventSink
}

// Registry is the only place that knows which connection belongs to which user.
// The zero username means the session is still unclaimed.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ConnID]*entry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.ConnID]*entry),
	}
}

// Open registers a new unclaimed session together with its outbound sink.
// Opening an id twice replaces the previous sink, which only happens if the
// transport reuses an id after close.
func (r *Registry) Open(id domain.ConnID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &entry{sink: sink}
}

// Bind associates a username with an open session. A second bind on the same
// connection overwrites the first (last write wins). Binding a connection that
// already closed loses the race with disconnect and reports ErrSessionNotFound.
func (r *Registry) Bind(id domain.ConnID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return errors.ErrSessionNotFound
	}
	e.username = username
	return nil
}

// LookupUsername returns the bound username, or false while unclaimed.
func (r *Registry) LookupUsername(id domain.ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[id]
	if !ok || e.username == "" {
		return "", false
	}
	return e.username, true
}

// Close removes the session and returns the previously-bound username so the
// caller can run presence teardown exactly once. Closing twice is a no-op.
func (r *Registry) Close(id domain.ConnID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	delete(r.sessions, id)
	if e.username == "" {
		return "", false
	}
	return e.username, true
}

// Sinks returns a snapshot of every open connection's sink.
// The caller delivers outside the lock so one slow client can't
// block registry operations.
func (r *Registry) Sinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, e := range r.sessions {
		sinks = append(sinks, e.sink)
	}
	return sinks
}

// SinksExcept snapshots every sink but the excluded connection's.
func (r *Registry) SinksExcept(id domain.ConnID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for connID, e := range r.sessions {
		if connID == id {
			continue
		}
		sinks = append(sinks, e.sink)
	}
	return sinks
}

// Count reports how many connections are currently open.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
