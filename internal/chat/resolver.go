package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "fonnect/internal/errors"
	"fonnect/internal/user"
)

// Route tells which rule placed a message in its conversation.
type Route int

const (
	RouteSelf Route = iota
	RouteConversation
	RoutePrivate
)

func (r Route) String() string {
	switch r {
	case RouteSelf:
		return "self"
	case RouteConversation:
		return "conversation"
	case RoutePrivate:
		return "private"
	default:
		return fmt.Sprintf("Route(%d)", int(r))
	}
}

type Resolution struct {
	Route  Route
	Sender *user.User
	// Receiver is set for RoutePrivate only.
	Receiver     *user.User
	Conversation *PopulatedConversation
}

// Resolver finds or creates the conversation a message belongs to and
// appends the message to it.
type Resolver struct {
	store Store
	users UserLookup
	now   func() time.Time
}

func NewResolver(store Store, users UserLookup) *Resolver {
	return &Resolver{store: store, users: users, now: func() time.Time { return time.Now().UTC() }}
}

// Resolve applies, in order: self-chat when sender and receiver are the same
// user, the explicit conversation id when one is given, and otherwise the
// private conversation of the sender/receiver pair.
func (r *Resolver) Resolve(ctx context.Context, req *SendMessageRequest) (*Resolution, error) {
	var (
		res Resolution
		id  string
		err error
	)
	switch {
	case req.SenderUsername == req.ReceiverUsername:
		res.Route = RouteSelf
		id, err = r.resolveSelf(ctx, req, &res)
	case req.ConversationID != "":
		res.Route = RouteConversation
		id, err = r.resolveConversation(ctx, req, &res)
	default:
		res.Route = RoutePrivate
		id, err = r.resolvePrivate(ctx, req, &res)
	}
	if err != nil {
		return nil, err
	}

	conv, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload conversation %s: %w", id, err)
	}
	if res.Conversation, err = Populate(ctx, r.users, conv); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Resolver) resolveSelf(ctx context.Context, req *SendMessageRequest, res *Resolution) (string, error) {
	sender, err := r.users.GetUserByUsername(ctx, req.SenderUsername)
	if err != nil {
		return "", err
	}
	res.Sender = sender
	return r.appendOrCreate(ctx, []string{sender.ID}, r.message(sender, req))
}

// resolveConversation only accepts senders that take part in the conversation.
func (r *Resolver) resolveConversation(ctx context.Context, req *SendMessageRequest, res *Resolution) (string, error) {
	conv, err := r.store.FindByID(ctx, req.ConversationID)
	if err != nil {
		return "", err
	}
	sender, err := r.users.GetUserByUsername(ctx, req.SenderUsername)
	if err != nil {
		return "", err
	}
	if !conv.HasParticipant(sender.ID) {
		return "", apperrors.ErrNotAParticipant
	}
	res.Sender = sender
	return conv.ID, r.store.AppendMessage(ctx, conv.ID, r.message(sender, req))
}

func (r *Resolver) resolvePrivate(ctx context.Context, req *SendMessageRequest, res *Resolution) (string, error) {
	sender, err := r.users.GetUserByUsername(ctx, req.SenderUsername)
	if err != nil {
		return "", fmt.Errorf("%w: sender %q", err, req.SenderUsername)
	}
	receiver, err := r.users.GetUserByUsername(ctx, req.ReceiverUsername)
	if err != nil {
		return "", fmt.Errorf("%w: receiver %q", err, req.ReceiverUsername)
	}
	res.Sender, res.Receiver = sender, receiver
	return r.appendOrCreate(ctx, []string{sender.ID, receiver.ID}, r.message(sender, req))
}

// appendOrCreate appends m to the unnamed conversation of participants,
// creating it with m as first message when missing. Losing a concurrent
// create to another request falls back to appending to the winner's
// conversation.
func (r *Resolver) appendOrCreate(ctx context.Context, participants []string, m Message) (string, error) {
	conv, err := r.store.FindByParticipants(ctx, participants)
	if err == nil {
		return conv.ID, r.store.AppendMessage(ctx, conv.ID, m)
	}
	if !errors.Is(err, apperrors.ErrConversationNotFound) {
		return "", err
	}

	created := &Conversation{
		Participants: participants,
		Messages:     []Message{m},
		CreatedAt:    m.Timestamp,
	}
	err = r.store.Create(ctx, created)
	if errors.Is(err, apperrors.ErrDuplicateConversation) {
		conv, err = r.store.FindByParticipants(ctx, participants)
		if err != nil {
			return "", err
		}
		return conv.ID, r.store.AppendMessage(ctx, conv.ID, m)
	}
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (r *Resolver) message(sender *user.User, req *SendMessageRequest) Message {
	return Message{Sender: sender.ID, Content: req.Content, Timestamp: r.now()}
}
