package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chatfeed/models"
)

func TestDeriveRollup(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	replies := []models.ReplySummary{
		{ID: "r1", MemberID: "alice", AuthorName: "Alice", CreatedAt: base},
		{ID: "r2", MemberID: "bob", AuthorName: "Bob", CreatedAt: base.Add(time.Minute)},
		{ID: "r3", MemberID: "carol", AuthorName: "Carol", AuthorImage: "carol.png", CreatedAt: base.Add(2 * time.Minute)},
	}

	r := DeriveRollup(replies)
	assert.Equal(t, 3, r.Count)
	assert.Equal(t, "Carol", r.LatestAuthorName)
	assert.Equal(t, "carol.png", r.LatestAuthorImage)
	assert.Equal(t, base.Add(2*time.Minute), r.LatestTimestamp)
	assert.False(t, r.Empty())
}

func TestDeriveRollupNoReplies(t *testing.T) {
	r := DeriveRollup(nil)
	assert.True(t, r.Empty())
	assert.Zero(t, r.Count)
}
