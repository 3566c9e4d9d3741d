package feed

import (
	"time"

	"chatfeed/models"
)

// CompactionWindow is how closely a message must follow its predecessor
// to render as a continuation of it.
const CompactionWindow = 5 * time.Minute

// Compact reports whether cur should render without repeating its
// author's identity: prev is the chronologically earlier neighbour within
// the same date bucket, by the same author, and strictly less than five
// minutes older. An exact five-minute gap renders full.
func Compact(prev, cur *models.FeedMessage) bool {
	if prev == nil {
		return false
	}
	if prev.MemberID != cur.MemberID {
		return false
	}
	return cur.CreatedAt.Sub(prev.CreatedAt) < CompactionWindow
}
