package feed

import (
	"time"

	"chatfeed/models"
)

// Rollup is the derived thread-preview summary of a message's replies.
// The zero value means "no thread": the preview bar is suppressed.
type Rollup struct {
	Count             int
	LatestAuthorName  string
	LatestAuthorImage string
	LatestTimestamp   time.Time
}

func (r Rollup) Empty() bool { return r.Count == 0 }

// DeriveRollup summarizes a reply set, ordered oldest first as the store
// delivers it. It is recomputed from scratch on every snapshot.
func DeriveRollup(replies []models.ReplySummary) Rollup {
	if len(replies) == 0 {
		return Rollup{}
	}

	latest := replies[len(replies)-1]
	return Rollup{
		Count:             len(replies),
		LatestAuthorName:  latest.AuthorName,
		LatestAuthorImage: latest.AuthorImage,
		LatestTimestamp:   latest.CreatedAt,
	}
}
