package user

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"fonnect/internal/db"
	"fonnect/internal/realtime"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakePresence map[string]bool

func (f fakePresence) IsActive(username string) bool { return f[username] }

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, ev realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingBroadcaster) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

func newBadgerRepository(t *testing.T) *BadgerRepository {
	t.Helper()
	bdb, err := db.OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })
	return NewBadgerRepository(bdb)
}

func newTestService(t *testing.T, presence fakePresence) (*Service, *recordingBroadcaster) {
	t.Helper()
	events := &recordingBroadcaster{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(newBadgerRepository(t), Options{
		JWTSecret:  "test-secret",
		BcryptCost: bcrypt.MinCost,
	}, presence, events, log)
	return svc, events
}
