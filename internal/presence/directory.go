package presence

import "sync"

// Conn is a live realtime connection that can be addressed by username.
type Conn interface {
	Username() string
	// Send queues payload without blocking and reports whether it was accepted.
	Send(payload []byte) bool
}

// Directory maps a username to every connection it currently holds.
type Directory struct {
	mu    sync.RWMutex
	conns map[string]map[Conn]struct{}
}

func NewDirectory() *Directory {
	return &Directory{conns: make(map[string]map[Conn]struct{})}
}

func (d *Directory) Add(c Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.conns[c.Username()]
	if !ok {
		set = make(map[Conn]struct{})
		d.conns[c.Username()] = set
	}
	set[c] = struct{}{}
}

// Remove forgets c and reports whether it was registered.
func (d *Directory) Remove(c Conn) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.conns[c.Username()]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(d.conns, c.Username())
	}
	return true
}

// Lookup returns the live connections of username, or nil when it has none.
func (d *Directory) Lookup(username string) []Conn {
	d.mu.RLock()
	defer d.mu.RUnlock()
	set := d.conns[username]
	if len(set) == 0 {
		return nil
	}
	out := make([]Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (d *Directory) All() []Conn {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Conn
	for _, set := range d.conns {
		for c := range set {
			out = append(out, c)
		}
	}
	return out
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, set := range d.conns {
		n += len(set)
	}
	return n
}
