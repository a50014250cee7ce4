package chat

import (
	"slices"
	"strings"
	"time"

	"fonnect/internal/user"

	"github.com/samber/lo"
)

// Message is embedded in its conversation and never changes once appended.
type Message struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a self-conversation (one participant, no name), a private
// conversation (two participants, no name) or a named group.
type Conversation struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Participants []string  `json:"participants"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (c *Conversation) IsGroup() bool {
	return c.Name != ""
}

func (c *Conversation) HasParticipant(userID string) bool {
	return lo.Contains(c.Participants, userID)
}

// PairKey is the identity of an unnamed conversation; groups have none.
func (c *Conversation) PairKey() string {
	if c.IsGroup() {
		return ""
	}
	return PairKey(c.Participants...)
}

// PairKey normalizes a participant set so that {a,b} and {b,a} share a key.
func PairKey(ids ...string) string {
	sorted := lo.Uniq(ids)
	slices.Sort(sorted)
	return strings.Join(sorted, ":")
}

type PopulatedMessage struct {
	Sender    user.Profile `json:"sender"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
}

// PopulatedConversation is a Conversation with participants and message
// senders expanded to profiles, as returned by the API.
type PopulatedConversation struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Participants []user.Profile     `json:"participants"`
	Messages     []PopulatedMessage `json:"messages"`
	CreatedAt    time.Time          `json:"createdAt"`
}

type GroupSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PrivateSummary lists an unnamed conversation from one user's point of
// view: Participants never contains that user.
type PrivateSummary struct {
	ID           string         `json:"id"`
	Participants []user.Profile `json:"participants"`
}

type SendMessageRequest struct {
	SenderUsername   string `json:"senderUsername" validate:"required"`
	ReceiverUsername string `json:"receiverUsername" validate:"required_without=ConversationID"`
	Content          string `json:"content" validate:"required,max=4096"`
	ConversationID   string `json:"conversationId,omitempty"`
}

type CreateGroupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required"`
}

type JoinGroupRequest struct {
	ConversationID string `json:"-" validate:"required"`
	Username       string `json:"username" validate:"required"`
}

type GetMessagesRequest struct {
	ConversationID string `validate:"required"`
	Username       string `validate:"required"`
}

const (
	TypePrivate   = "private"
	TypeGroupChat = "groupchat"
)

// NewMessage is the payload of the newMessage event.
type NewMessage struct {
	Message        MessagePayload `json:"message"`
	ConversationID string         `json:"conversationId"`
	Type           string         `json:"type"`
}

type MessagePayload struct {
	Sender  user.Profile `json:"sender"`
	Content string       `json:"content"`
}
