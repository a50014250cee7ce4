package chat

import (
	"context"
	"fmt"

	"fonnect/internal/user"

	"github.com/samber/lo"
)

// Populate expands participant and sender ids into profiles. Ids whose user
// no longer exists keep a profile carrying only the id.
func Populate(ctx context.Context, users UserLookup, c *Conversation) (*PopulatedConversation, error) {
	ids := append([]string{}, c.Participants...)
	for _, m := range c.Messages {
		ids = append(ids, m.Sender)
	}
	profiles, err := profilesFor(ctx, users, lo.Uniq(ids))
	if err != nil {
		return nil, err
	}

	return &PopulatedConversation{
		ID:           c.ID,
		Name:         c.Name,
		Participants: lo.Map(c.Participants, func(id string, _ int) user.Profile { return profiles(id) }),
		Messages: lo.Map(c.Messages, func(m Message, _ int) PopulatedMessage {
			return PopulatedMessage{Sender: profiles(m.Sender), Content: m.Content, Timestamp: m.Timestamp}
		}),
		CreatedAt: c.CreatedAt,
	}, nil
}

func profilesFor(ctx context.Context, users UserLookup, ids []string) (func(string) user.Profile, error) {
	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return func(id string) user.Profile {
		if u, ok := found[id]; ok {
			return u.Profile()
		}
		return user.Profile{ID: id}
	}, nil
}
