package feed

import (
	"time"

	"chatfeed/models"
)

const dayKeyFormat = "2006-01-02"

// DateBucket holds the messages of one local calendar day, oldest first.
type DateBucket struct {
	Key      string
	Messages []models.FeedMessage
}

// GroupByDay partitions a newest-first message sequence into calendar-day
// buckets. Each message is prepended to its bucket, so within a bucket
// messages come out oldest first. Buckets are emitted in first-insertion
// order, newest day first.
func GroupByDay(msgs []models.FeedMessage, loc *time.Location) []DateBucket {
	if loc == nil {
		loc = time.Local
	}

	index := make(map[string]int)
	var buckets []DateBucket

	for _, msg := range msgs {
		key := msg.CreatedAt.In(loc).Format(dayKeyFormat)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, DateBucket{Key: key})
		}
		buckets[i].Messages = append([]models.FeedMessage{msg}, buckets[i].Messages...)
	}
	return buckets
}

// DayLabel renders a bucket key for the date separator. It is a pure
// function of (key, now) and must be re-evaluated at render time so the
// Today/Yesterday labels roll over at midnight.
func DayLabel(key string, now time.Time) string {
	day, err := time.ParseInLocation(dayKeyFormat, key, now.Location())
	if err != nil {
		return key
	}

	switch key {
	case now.Format(dayKeyFormat):
		return "Today"
	case now.AddDate(0, 0, -1).Format(dayKeyFormat):
		return "Yesterday"
	}

	if day.Year() != now.Year() {
		return day.Format("Monday, January 2, 2006")
	}
	return day.Format("Monday, January 2")
}

// FullTimeLabel is the hover timestamp for a single message.
func FullTimeLabel(t, now time.Time) string {
	t = t.In(now.Location())
	day := t.Format(dayKeyFormat)

	var prefix string
	switch day {
	case now.Format(dayKeyFormat):
		prefix = "Today"
	case now.AddDate(0, 0, -1).Format(dayKeyFormat):
		prefix = "Yesterday"
	default:
		prefix = t.Format("Jan 2, 06")
	}
	return prefix + " at " + t.Format("3:04:05 PM")
}
