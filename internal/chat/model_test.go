package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairKey(t *testing.T) {
	req := require.New(t)
	req.Equal(PairKey("a", "b"), PairKey("b", "a"))
	req.Equal("a", PairKey("a"))
	req.Equal("a", PairKey("a", "a"))
	req.NotEqual(PairKey("a", "b"), PairKey("a", "c"))

	in := []string{"z", "a"}
	_ = PairKey(in...)
	req.Equal([]string{"z", "a"}, in)
}

func TestConversation_PairKey(t *testing.T) {
	req := require.New(t)
	private := &Conversation{Participants: []string{"b", "a"}}
	group := &Conversation{Name: "general", Participants: []string{"a", "b"}}

	req.Equal("a:b", private.PairKey())
	req.Empty(group.PairKey())
	req.True(group.IsGroup())
	req.True(private.HasParticipant("b"))
	req.False(private.HasParticipant("c"))
}
