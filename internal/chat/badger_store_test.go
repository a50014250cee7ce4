package chat

import (
	"context"
	"testing"
	"time"

	apperrors "fonnect/internal/errors"

	"github.com/stretchr/testify/require"
)

func TestBadgerStore(t *testing.T) {
	ctx := context.Background()

	t.Run("should keep one unnamed conversation per participant set", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		first := &Conversation{Participants: []string{"a", "b"}, CreatedAt: time.Now()}
		req.NoError(f.store.Create(ctx, first))
		req.NotEmpty(first.ID)

		err := f.store.Create(ctx, &Conversation{Participants: []string{"b", "a"}, CreatedAt: time.Now()})
		req.ErrorIs(err, apperrors.ErrDuplicateConversation)

		found, err := f.store.FindByParticipants(ctx, []string{"b", "a"})
		req.NoError(err)
		req.Equal(first.ID, found.ID)

		_, err = f.store.FindByParticipants(ctx, []string{"a", "c"})
		req.ErrorIs(err, apperrors.ErrConversationNotFound)
	})

	t.Run("should allow groups with the same participants", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		req.NoError(f.store.Create(ctx, &Conversation{Name: "one", Participants: []string{"a"}}))
		req.NoError(f.store.Create(ctx, &Conversation{Name: "two", Participants: []string{"a"}}))

		_, err := f.store.FindByParticipants(ctx, []string{"a"})
		req.ErrorIs(err, apperrors.ErrConversationNotFound)
	})

	t.Run("should append messages in order", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		c := &Conversation{Participants: []string{"a"}}
		req.NoError(f.store.Create(ctx, c))

		now := time.Now().UTC()
		req.NoError(f.store.AppendMessage(ctx, c.ID, Message{Sender: "a", Content: "one", Timestamp: now}))
		req.NoError(f.store.AppendMessage(ctx, c.ID, Message{Sender: "a", Content: "two", Timestamp: now.Add(time.Second)}))

		got, err := f.store.FindByID(ctx, c.ID)
		req.NoError(err)
		req.Len(got.Messages, 2)
		req.Equal("one", got.Messages[0].Content)
		req.Equal("two", got.Messages[1].Content)

		err = f.store.AppendMessage(ctx, "missing", Message{Sender: "a", Content: "x"})
		req.ErrorIs(err, apperrors.ErrConversationNotFound)
	})

	t.Run("should add a participant once", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		c := &Conversation{Name: "general", Participants: []string{"a"}}
		req.NoError(f.store.Create(ctx, c))

		req.NoError(f.store.AddParticipant(ctx, c.ID, "b"))
		req.ErrorIs(f.store.AddParticipant(ctx, c.ID, "b"), apperrors.ErrAlreadyParticipant)
		req.ErrorIs(f.store.AddParticipant(ctx, "missing", "b"), apperrors.ErrConversationNotFound)

		got, err := f.store.FindByID(ctx, c.ID)
		req.NoError(err)
		req.Equal([]string{"a", "b"}, got.Participants)
	})

	t.Run("should list named and unnamed conversations separately", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		base := time.Now().UTC()

		req.NoError(f.store.Create(ctx, &Conversation{Name: "later", Participants: []string{"a"}, CreatedAt: base.Add(time.Minute)}))
		req.NoError(f.store.Create(ctx, &Conversation{Name: "earlier", Participants: []string{"b"}, CreatedAt: base}))
		req.NoError(f.store.Create(ctx, &Conversation{Participants: []string{"a", "b"}, CreatedAt: base}))
		req.NoError(f.store.Create(ctx, &Conversation{Participants: []string{"b", "c"}, CreatedAt: base}))

		groups, err := f.store.FindNamed(ctx)
		req.NoError(err)
		req.Len(groups, 2)
		req.Equal("earlier", groups[0].Name)
		req.Equal("later", groups[1].Name)

		unnamed, err := f.store.FindUnnamedFor(ctx, "a")
		req.NoError(err)
		req.Len(unnamed, 1)
		req.ElementsMatch([]string{"a", "b"}, unnamed[0].Participants)
	})
}
