package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "fonnect/internal/errors"
	"fonnect/internal/realtime"
	"fonnect/internal/user"
	"fonnect/internal/validation"

	"github.com/samber/lo"
)

// Notifier pushes events to connected users.
type Notifier interface {
	Notify(ctx context.Context, username string, ev realtime.Event) error
	Broadcast(ctx context.Context, ev realtime.Event) error
}

// Service routes messages into conversations and delivers them to the
// participants that are connected. It also manages groups.
type Service struct {
	store    Store
	users    UserLookup
	resolver *Resolver
	events   Notifier
	log      *slog.Logger
}

func NewService(store Store, users UserLookup, events Notifier, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		users:    users,
		resolver: NewResolver(store, users),
		events:   events,
		log:      log,
	}
}

// SendMessage stores the message and pushes a newMessage event to the other
// side: the receiver of a private message, or every other participant when
// an explicit conversation was addressed. Self-notes are not pushed.
func (s *Service) SendMessage(ctx context.Context, req *SendMessageRequest) (*PopulatedConversation, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	res, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	event := NewMessage{
		Message:        MessagePayload{Sender: res.Sender.Profile(), Content: req.Content},
		ConversationID: res.Conversation.ID,
	}
	switch res.Route {
	case RoutePrivate:
		event.Type = TypePrivate
		s.notify(ctx, res.Receiver.Username, event)
	case RouteConversation:
		event.Type = TypeGroupChat
		for _, p := range res.Conversation.Participants {
			if p.ID == res.Sender.ID || p.Username == "" {
				continue
			}
			s.notify(ctx, p.Username, event)
		}
	}

	s.log.Debug("Message routed",
		"conversation", res.Conversation.ID, "route", res.Route.String(), "sender", res.Sender.Username)
	return res.Conversation, nil
}

// CreateGroup creates a named conversation whose only participant is the
// creator and announces it to everyone.
func (s *Service) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*Conversation, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	creator, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	conv := &Conversation{
		Name:         req.Name,
		Participants: []string{creator.ID},
		Messages:     []Message{},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, conv); err != nil {
		return nil, err
	}

	if err := s.events.Broadcast(ctx, realtime.Event{
		Name: realtime.EventGroupAdded,
		Data: GroupSummary{ID: conv.ID, Name: conv.Name},
	}); err != nil {
		s.log.Warn("groupAdded broadcast failed", "conversation", conv.ID, "error", err)
	}
	s.log.Info("Group created", "conversation", conv.ID, "name", conv.Name, "creator", creator.Username)
	return conv, nil
}

func (s *Service) JoinGroup(ctx context.Context, req *JoinGroupRequest) (*PopulatedConversation, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	conv, err := s.store.FindByID(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if !conv.IsGroup() {
		return nil, apperrors.ErrNotAGroup
	}
	if conv.HasParticipant(u.ID) {
		return nil, apperrors.ErrAlreadyParticipant
	}

	if err := s.store.AddParticipant(ctx, conv.ID, u.ID); err != nil {
		return nil, err
	}
	if conv, err = s.store.FindByID(ctx, conv.ID); err != nil {
		return nil, err
	}
	return Populate(ctx, s.users, conv)
}

// GetMessages returns the conversation with its history, for participants only.
func (s *Service) GetMessages(ctx context.Context, req *GetMessagesRequest) (*PopulatedConversation, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	conv, err := s.store.FindByID(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(u.ID) {
		return nil, apperrors.ErrNotAParticipant
	}
	return Populate(ctx, s.users, conv)
}

func (s *Service) ListGroups(ctx context.Context) ([]GroupSummary, error) {
	groups, err := s.store.FindNamed(ctx)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []GroupSummary{}
	}
	return groups, nil
}

// ListPrivateConversations lists the unnamed conversations of username, each
// showing only the other party.
func (s *Service) ListPrivateConversations(ctx context.Context, username string) ([]PrivateSummary, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", apperrors.ErrInvalidRequest)
	}
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	convs, err := s.store.FindUnnamedFor(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, c := range convs {
		ids = append(ids, c.Participants...)
	}
	profiles, err := profilesFor(ctx, s.users, lo.Uniq(ids))
	if err != nil {
		return nil, err
	}

	out := make([]PrivateSummary, 0, len(convs))
	for _, c := range convs {
		others := lo.Without(c.Participants, u.ID)
		out = append(out, PrivateSummary{
			ID:           c.ID,
			Participants: lo.Map(others, func(id string, _ int) user.Profile { return profiles(id) }),
		})
	}
	return out, nil
}

// notify is best effort: the message is already stored.
func (s *Service) notify(ctx context.Context, username string, payload NewMessage) {
	err := s.events.Notify(ctx, username, realtime.Event{Name: realtime.EventNewMessage, Data: payload})
	if err != nil {
		s.log.Warn("newMessage delivery failed", "username", username, "error", err)
	}
}
