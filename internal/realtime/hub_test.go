package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fonnect/internal/presence"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	username string
	full     bool

	mu     sync.Mutex
	frames []Event
	closed bool
}

func newFakeConn(username string) *fakeConn {
	return &fakeConn{username: username}
}

func (f *fakeConn) Username() string { return f.username }

func (f *fakeConn) Send(payload []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return false
	}
	var raw struct {
		Name string          `json:"event"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return false
	}
	f.frames = append(f.frames, Event{Name: raw.Name, Data: raw.Data})
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) named(name string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []json.RawMessage
	for _, e := range f.frames {
		if e.Name == name {
			out = append(out, e.Data.(json.RawMessage))
		}
	}
	return out
}

// lastActiveUsers returns the most recent presence snapshot the conn saw.
func (f *fakeConn) lastActiveUsers() []string {
	frames := f.named(EventActiveUsers)
	if len(frames) == 0 {
		return nil
	}
	var au ActiveUsers
	_ = json.Unmarshal(frames[len(frames)-1], &au)
	return au.ActiveUsers
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(log, presence.NewRegistry(), presence.NewDirectory())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func TestHub_PresenceBroadcastOnConnectAndDisconnect(t *testing.T) {
	req := require.New(t)
	hub, _ := startHub(t)
	alice, bob := newFakeConn("alice"), newFakeConn("bob")

	hub.Connect(alice)
	hub.Connect(bob)

	req.Eventually(func() bool {
		return len(alice.lastActiveUsers()) == 2 && len(bob.lastActiveUsers()) == 2
	}, time.Second, 5*time.Millisecond)
	req.ElementsMatch([]string{"alice", "bob"}, hub.ActiveUsers())
	req.True(hub.IsActive("bob"))

	hub.Disconnect(bob)

	req.Eventually(func() bool {
		users := alice.lastActiveUsers()
		return len(users) == 1 && users[0] == "alice"
	}, time.Second, 5*time.Millisecond)
	req.False(hub.IsActive("bob"))
	req.True(bob.isClosed())
}

func TestHub_NotifyTargetsOnlyTheUsername(t *testing.T) {
	req := require.New(t)
	hub, _ := startHub(t)
	alice, bob1, bob2 := newFakeConn("alice"), newFakeConn("bob"), newFakeConn("bob")
	hub.Connect(alice)
	hub.Connect(bob1)
	hub.Connect(bob2)

	err := hub.Notify(context.Background(), "bob", Event{Name: EventNewMessage, Data: map[string]string{"content": "hi"}})
	req.NoError(err)

	req.Eventually(func() bool {
		return len(bob1.named(EventNewMessage)) == 1 && len(bob2.named(EventNewMessage)) == 1
	}, time.Second, 5*time.Millisecond)
	req.Empty(alice.named(EventNewMessage))

	req.NoError(hub.Notify(context.Background(), "carol", Event{Name: EventNewMessage}))
	req.Error(hub.Notify(context.Background(), "", Event{Name: EventNewMessage}))
}

func TestHub_BroadcastReachesEveryone(t *testing.T) {
	req := require.New(t)
	hub, _ := startHub(t)
	alice, bob := newFakeConn("alice"), newFakeConn("bob")
	hub.Connect(alice)
	hub.Connect(bob)

	req.NoError(hub.Broadcast(context.Background(), Event{Name: EventGroupAdded, Data: map[string]string{"id": "g1", "name": "general"}}))

	req.Eventually(func() bool {
		return len(alice.named(EventGroupAdded)) == 1 && len(bob.named(EventGroupAdded)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHub_DropsClientWithFullBuffer(t *testing.T) {
	req := require.New(t)
	hub, _ := startHub(t)
	alice := newFakeConn("alice")
	slow := newFakeConn("slow")
	slow.full = true

	hub.Connect(alice)
	hub.Connect(slow)

	req.Eventually(func() bool { return slow.isClosed() }, time.Second, 5*time.Millisecond)
	req.Eventually(func() bool { return !hub.IsActive("slow") }, time.Second, 5*time.Millisecond)
}

type loopbackFanout struct {
	mu        sync.Mutex
	published []Envelope
	hub       *Hub
}

func (l *loopbackFanout) Publish(_ context.Context, env Envelope) error {
	l.mu.Lock()
	l.published = append(l.published, env)
	l.mu.Unlock()
	l.hub.Deliver(env)
	return nil
}

func TestHub_RoutesThroughFanout(t *testing.T) {
	req := require.New(t)
	hub, _ := startHub(t)
	fanout := &loopbackFanout{hub: hub}
	hub.WithFanout(fanout)
	bob := newFakeConn("bob")
	hub.Connect(bob)

	req.NoError(hub.Notify(context.Background(), "bob", Event{Name: EventNewMessage}))

	req.Eventually(func() bool { return len(bob.named(EventNewMessage)) == 1 }, time.Second, 5*time.Millisecond)
	fanout.mu.Lock()
	defer fanout.mu.Unlock()
	req.Len(fanout.published, 1)
	req.Equal("bob", fanout.published[0].Target)
}

func TestHub_StopClosesConnections(t *testing.T) {
	req := require.New(t)
	hub, cancel := startHub(t)
	alice := newFakeConn("alice")
	hub.Connect(alice)
	req.Eventually(func() bool { return hub.IsActive("alice") }, time.Second, 5*time.Millisecond)

	cancel()

	req.Eventually(func() bool { return alice.isClosed() }, time.Second, 5*time.Millisecond)
	req.Eventually(func() bool {
		return hub.Broadcast(context.Background(), Event{Name: EventGroupAdded}) != nil
	}, time.Second, 5*time.Millisecond)
}
