package validation

import (
	"testing"

	apperrors "fonnect/internal/errors"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Username       string `validate:"required,min=3"`
	ConversationID string
	Receiver       string `validate:"required_without=ConversationID"`
}

func TestStruct(t *testing.T) {
	t.Run("should accept a valid request", func(t *testing.T) {
		require.NoError(t, Struct(sample{Username: "alice", Receiver: "bob"}))
	})

	t.Run("should name every failing field", func(t *testing.T) {
		req := require.New(t)
		err := Struct(sample{Username: "al"})
		req.ErrorIs(err, apperrors.ErrInvalidRequest)
		req.Contains(err.Error(), "username must be at least 3 characters")
		req.Contains(err.Error(), "receiver is required when conversationID is absent")
	})

	t.Run("should accept a missing receiver when a conversation is given", func(t *testing.T) {
		require.NoError(t, Struct(sample{Username: "alice", ConversationID: "c1"}))
	})
}
