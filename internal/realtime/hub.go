package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"fonnect/internal/presence"
)

// Conn is a connection the hub can register. Close is called once by the hub
// when it forgets the connection.
type Conn interface {
	presence.Conn
	Close()
}

// Fanout carries envelopes to every server instance, including this one.
type Fanout interface {
	Publish(ctx context.Context, env Envelope) error
}

// Hub is the realtime gateway. Its Run loop is the only writer of the
// presence registry and the connection directory.
type Hub struct {
	log        *slog.Logger
	presence   *presence.Registry
	directory  *presence.Directory
	fanout     Fanout
	register   chan Conn
	unregister chan Conn
	deliver    chan Envelope
	done       chan struct{}
}

func NewHub(log *slog.Logger, registry *presence.Registry, directory *presence.Directory) *Hub {
	return &Hub{
		log:        log,
		presence:   registry,
		directory:  directory,
		register:   make(chan Conn),
		unregister: make(chan Conn),
		deliver:    make(chan Envelope, 256),
		done:       make(chan struct{}),
	}
}

// WithFanout routes every emitted event through f instead of delivering it
// locally. f must hand envelopes back through Deliver.
func (h *Hub) WithFanout(f Fanout) *Hub {
	h.fanout = f
	return h
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.presence.Add(c.Username())
			h.directory.Add(c)
			h.log.Info("Client connected", "username", c.Username(), "connections", h.directory.Len())
			h.dispatchActiveUsers()

		case c := <-h.unregister:
			h.disconnect(c)

		case env := <-h.deliver:
			h.dispatch(env)
		}
	}
}

func (h *Hub) Connect(c Conn) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Disconnect(c Conn) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast emits ev to every connected user.
func (h *Hub) Broadcast(ctx context.Context, ev Event) error {
	return h.emit(ctx, "", ev)
}

// Notify emits ev to every connection of username. Users without a live
// connection are skipped.
func (h *Hub) Notify(ctx context.Context, username string, ev Event) error {
	if username == "" {
		return fmt.Errorf("notify: empty username")
	}
	return h.emit(ctx, username, ev)
}

// Deliver hands an envelope to the run loop for local dispatch.
func (h *Hub) Deliver(env Envelope) {
	select {
	case h.deliver <- env:
	case <-h.done:
	}
}

func (h *Hub) IsActive(username string) bool {
	return h.presence.IsActive(username)
}

func (h *Hub) ActiveUsers() []string {
	return h.presence.Snapshot()
}

func (h *Hub) emit(ctx context.Context, target string, ev Event) error {
	env, err := encode(target, ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Name, err)
	}
	if h.fanout != nil {
		return h.fanout.Publish(ctx, env)
	}
	select {
	case <-h.done:
		return fmt.Errorf("hub stopped")
	default:
	}
	select {
	case h.deliver <- env:
		return nil
	case <-h.done:
		return fmt.Errorf("hub stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) disconnect(c Conn) {
	if !h.directory.Remove(c) {
		return
	}
	h.presence.Remove(c.Username())
	c.Close()
	h.log.Info("Client disconnected", "username", c.Username(), "connections", h.directory.Len())
	h.dispatchActiveUsers()
}

// dispatchActiveUsers sends the presence snapshot to local connections only;
// presence is tracked per instance.
func (h *Hub) dispatchActiveUsers() {
	env, err := encode("", Event{Name: EventActiveUsers, Data: ActiveUsers{ActiveUsers: h.presence.Snapshot()}})
	if err != nil {
		h.log.Error("Encode presence failed", "error", err)
		return
	}
	h.dispatch(env)
}

func (h *Hub) dispatch(env Envelope) {
	var targets []presence.Conn
	if env.Target == "" {
		targets = h.directory.All()
	} else {
		targets = h.directory.Lookup(env.Target)
	}

	var slow []Conn
	for _, t := range targets {
		if !t.Send(env.Payload) {
			if c, ok := t.(Conn); ok {
				slow = append(slow, c)
			}
		}
	}
	for _, c := range slow {
		h.log.Warn("Dropping client with full send buffer", "username", c.Username())
		h.disconnect(c)
	}
}

func (h *Hub) closeAll() {
	conns := h.directory.All()
	for _, t := range conns {
		h.directory.Remove(t)
		h.presence.Remove(t.Username())
		if c, ok := t.(Conn); ok {
			c.Close()
		}
	}
	h.log.Info("Closed client connections", "count", len(conns))
}
