package chat

import (
	"context"

	"fonnect/internal/user"
)

// Store persists conversations. Lookups of unknown conversations return
// errors.ErrConversationNotFound.
type Store interface {
	// Create assigns an id when c.ID is empty. It returns
	// errors.ErrDuplicateConversation when an unnamed conversation with the
	// same participant set already exists.
	Create(ctx context.Context, c *Conversation) error
	FindByID(ctx context.Context, id string) (*Conversation, error)
	// FindByParticipants finds the unnamed conversation whose participant set
	// equals participants, in any order.
	FindByParticipants(ctx context.Context, participants []string) (*Conversation, error)
	FindNamed(ctx context.Context) ([]GroupSummary, error)
	// FindUnnamedFor lists the unnamed conversations userID takes part in,
	// without their messages.
	FindUnnamedFor(ctx context.Context, userID string) ([]Conversation, error)
	AppendMessage(ctx context.Context, id string, m Message) error
	// AddParticipant returns errors.ErrAlreadyParticipant when userID is
	// already in the conversation.
	AddParticipant(ctx context.Context, id, userID string) error
}

// UserLookup is the read side of the user store the chat core needs.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*user.User, error)
}
