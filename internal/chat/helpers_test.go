package chat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fonnect/internal/db"
	"fonnect/internal/realtime"
	"fonnect/internal/user"

	"github.com/stretchr/testify/require"
)

type delivery struct {
	Target string
	Event  realtime.Event
}

type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (r *recordingNotifier) Notify(_ context.Context, username string, ev realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{Target: username, Event: ev})
	return nil
}

func (r *recordingNotifier) Broadcast(_ context.Context, ev realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{Event: ev})
	return nil
}

func (r *recordingNotifier) named(name string) []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []delivery
	for _, d := range r.deliveries {
		if d.Event.Name == name {
			out = append(out, d)
		}
	}
	return out
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = nil
}

type fixture struct {
	store    *BadgerStore
	users    *user.BadgerRepository
	events   *recordingNotifier
	service  *Service
	resolver *Resolver
	ids      map[string]string
}

// newFixture opens a Badger database in a temp dir and registers usernames.
func newFixture(t *testing.T, usernames ...string) *fixture {
	t.Helper()
	bdb, err := db.OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })

	f := &fixture{
		store:  NewBadgerStore(bdb),
		users:  user.NewBadgerRepository(bdb),
		events: &recordingNotifier{},
		ids:    make(map[string]string),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = NewService(f.store, f.users, f.events, log)
	f.resolver = NewResolver(f.store, f.users)

	for i, name := range usernames {
		u := &user.User{
			ID:        "id-" + name,
			Username:  name,
			Fullname:  name + " Fullname",
			Color:     "#11C098",
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		}
		require.NoError(t, f.users.CreateUser(context.Background(), u))
		f.ids[name] = u.ID
	}
	return f
}

func (f *fixture) send(t *testing.T, sender, receiver, content, conversationID string) *PopulatedConversation {
	t.Helper()
	conv, err := f.service.SendMessage(context.Background(), &SendMessageRequest{
		SenderUsername:   sender,
		ReceiverUsername: receiver,
		Content:          content,
		ConversationID:   conversationID,
	})
	require.NoError(t, err)
	return conv
}

func payloadOf(t *testing.T, d delivery) NewMessage {
	t.Helper()
	p, ok := d.Event.Data.(NewMessage)
	if ok {
		return p
	}
	raw, err := json.Marshal(d.Event.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}
