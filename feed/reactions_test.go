package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chatfeed/models"
)

func reaction(messageID, memberID, value string) models.Reaction {
	return models.Reaction{
		ID:        messageID + ":" + memberID + ":" + value,
		MessageID: messageID,
		MemberID:  memberID,
		Value:     value,
	}
}

func TestAggregateReactionsGroupsByEmoji(t *testing.T) {
	groups := AggregateReactions([]models.Reaction{
		reaction("m1", "alice", "👍"),
		reaction("m1", "bob", "👍"),
		reaction("m1", "alice", "🎉"),
	})

	assert.Len(t, groups, 2)
	assert.Equal(t, "👍", groups[0].Value)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, []string{"alice", "bob"}, groups[0].MemberIDs)
	assert.Equal(t, "🎉", groups[1].Value)
	assert.Equal(t, 1, groups[1].Count)
}

func TestAggregateReactionsCollapsesDuplicateAuthors(t *testing.T) {
	groups := AggregateReactions([]models.Reaction{
		reaction("m1", "alice", "👍"),
		reaction("m1", "alice", "👍"),
		reaction("m1", "alice", "👍"),
	})

	assert.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Count)
	assert.Equal(t, []string{"alice"}, groups[0].MemberIDs)
}

func TestAggregateReactionsEmpty(t *testing.T) {
	assert.Empty(t, AggregateReactions(nil))
}

func TestAggregateReactionsFirstSeenOrder(t *testing.T) {
	groups := AggregateReactions([]models.Reaction{
		reaction("m1", "carol", "😄"),
		reaction("m1", "alice", "👍"),
		reaction("m1", "bob", "😄"),
	})

	assert.Equal(t, "😄", groups[0].Value)
	assert.Equal(t, "👍", groups[1].Value)
	assert.Equal(t, 2, groups[0].Count)
}
