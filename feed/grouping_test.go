package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatfeed/models"
)

func feedMsg(id, memberID string, at time.Time) models.FeedMessage {
	return models.FeedMessage{
		Message: models.Message{
			ID:        id,
			MemberID:  memberID,
			Body:      "body " + id,
			CreatedAt: at,
		},
	}
}

func TestGroupByDayOneBucketPerDay(t *testing.T) {
	base := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	// Newest first, as the store returns them.
	msgs := []models.FeedMessage{
		feedMsg("m4", "alice", base),
		feedMsg("m3", "bob", base.Add(-time.Hour)),
		feedMsg("m2", "alice", base.Add(-24*time.Hour)),
		feedMsg("m1", "alice", base.Add(-25*time.Hour)),
	}

	buckets := GroupByDay(msgs, time.UTC)
	require.Len(t, buckets, 2)

	assert.Equal(t, "2026-03-10", buckets[0].Key)
	assert.Equal(t, "2026-03-09", buckets[1].Key)

	// Within a bucket the order flips to oldest first.
	require.Len(t, buckets[0].Messages, 2)
	assert.Equal(t, "m3", buckets[0].Messages[0].ID)
	assert.Equal(t, "m4", buckets[0].Messages[1].ID)

	require.Len(t, buckets[1].Messages, 2)
	assert.Equal(t, "m1", buckets[1].Messages[0].ID)
	assert.Equal(t, "m2", buckets[1].Messages[1].ID)
}

func TestGroupByDaySplitsOnLocalMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:00 UTC is 22:00 the previous day in New York.
	late := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	buckets := GroupByDay([]models.FeedMessage{feedMsg("m1", "alice", late)}, loc)

	require.Len(t, buckets, 1)
	assert.Equal(t, "2026-03-09", buckets[0].Key)
}

func TestGroupByDayEmpty(t *testing.T) {
	assert.Empty(t, GroupByDay(nil, time.UTC))
}

func TestDayLabel(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Today", DayLabel("2026-03-10", now))
	assert.Equal(t, "Yesterday", DayLabel("2026-03-09", now))
	assert.Equal(t, "Sunday, March 8", DayLabel("2026-03-08", now))
	assert.Equal(t, "Wednesday, December 31, 2025", DayLabel("2025-12-31", now))
}

func TestFullTimeLabel(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Today at 9:05:07 AM",
		FullTimeLabel(time.Date(2026, 3, 10, 9, 5, 7, 0, time.UTC), now))
	assert.Equal(t, "Yesterday at 11:30:00 PM",
		FullTimeLabel(time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC), now))
	assert.Equal(t, "Feb 1, 26 at 8:00:00 AM",
		FullTimeLabel(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC), now))
}
