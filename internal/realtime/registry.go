package realtime

import (
	"sync"
)

// ConnectionRegistry tracks which live connection IDs belong to which
// username. Usernames are expected to be normalized by the caller.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{}
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[string]map[string]struct{}),
	}
}

// AddConnection records connID as belonging to username, creating the
// user's entry if absent. Adding the same pair twice is a no-op.
func (r *ConnectionRegistry) AddConnection(username, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[username]
	if !ok {
		set = make(map[string]struct{})
		r.conns[username] = set
	}
	set[connID] = struct{}{}
}

// RemoveConnection removes connID from the user's set. The entry is kept
// even when the set becomes empty; the presence coordinator decides when
// to drop it (the debounce window keeps it alive until the offline
// transition commits). Removing an unknown pair is a no-op.
func (r *ConnectionRegistry) RemoveConnection(username, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.conns[username]; ok {
		delete(set, connID)
	}
}

// Forget drops the user's entry entirely. Called once an offline
// transition has been confirmed.
func (r *ConnectionRegistry) Forget(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, username)
}

// IsTracked reports whether the user has an entry at all. An entry with
// no connections still counts: it exists from the first connection until
// Forget, spanning the debounce window.
func (r *ConnectionRegistry) IsTracked(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[username]
	return ok
}

func (r *ConnectionRegistry) HasAnyConnection(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns[username]) > 0
}

// ConnectionsFor returns a copy of the user's connection IDs. Unknown
// users yield an empty slice, never nil.
func (r *ConnectionRegistry) ConnectionsFor(username string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[username]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
