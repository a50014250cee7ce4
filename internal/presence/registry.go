// Package presence keeps the per-process view of who is connected: the
// Registry of active usernames and the Directory of their live connections.
package presence

import "sync"

// Registry is the set of usernames holding at least one live connection.
// A username connected twice is counted twice and stays active until both
// connections are gone.
type Registry struct {
	mu     sync.RWMutex
	counts map[string]int
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{counts: make(map[string]int)}
}

func (r *Registry) Add(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts[username] == 0 {
		r.order = append(r.order, username)
	}
	r.counts[username]++
}

// Remove drops one connection for username. Unknown usernames are ignored.
func (r *Registry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.counts[username]
	if !ok {
		return
	}
	if n > 1 {
		r.counts[username] = n - 1
		return
	}
	delete(r.counts, username)
	for i, u := range r.order {
		if u == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) IsActive(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counts[username] > 0
}

// Snapshot returns the active usernames in the order they first connected.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
