package feed

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"chatfeed/models"
	"chatfeed/store"
)

// PageStatus is the pagination state of a feed window.
type PageStatus int

const (
	// LoadingFirstPage holds until the subscription delivers its first
	// snapshot.
	LoadingFirstPage PageStatus = iota
	// CanLoadMore means older pages exist and a load may be triggered.
	CanLoadMore
	// LoadingMore means a page fetch is in flight; further triggers are
	// no-ops.
	LoadingMore
	// Exhausted is terminal: the store has no older messages.
	Exhausted
)

func (s PageStatus) String() string {
	switch s {
	case LoadingFirstPage:
		return "LoadingFirstPage"
	case CanLoadMore:
		return "CanLoadMore"
	case LoadingMore:
		return "LoadingMore"
	case Exhausted:
		return "Exhausted"
	}
	return fmt.Sprintf("PageStatus(%d)", int(s))
}

// Pager fetches one page of older messages.
type Pager interface {
	QueryPage(q store.Query, cursor *time.Time, limit int) (*store.Page, error)
}

// Window owns the loaded slice of one feed's unbounded message stream:
// the newest-first message sequence, the backward cursor and the load
// status. It is owned by a single Feed loop and is not self-locking.
type Window struct {
	pager    Pager
	query    store.Query
	pageSize int
	log      *zap.Logger

	status   PageStatus
	cursor   *time.Time
	messages []models.FeedMessage

	sentinelVisible bool
}

func NewWindow(pager Pager, q store.Query, pageSize int, log *zap.Logger) *Window {
	if log == nil {
		log = zap.NewNop()
	}
	return &Window{
		pager:    pager,
		query:    q,
		pageSize: pageSize,
		log:      log,
		status:   LoadingFirstPage,
	}
}

func (w *Window) Status() PageStatus { return w.status }

// Messages returns the loaded sequence, newest first.
func (w *Window) Messages() []models.FeedMessage { return w.messages }

// ApplyLive merges a subscription snapshot into the window. The snapshot
// covers the newest part of the stream: loaded messages it contains are
// replaced in place, messages it introduces are new arrivals, and loaded
// messages inside its range that it no longer contains were deleted.
// Older messages beyond the snapshot's range are kept untouched; the
// pagination cursor is not consumed.
func (w *Window) ApplyLive(live []models.FeedMessage) {
	if w.status == LoadingFirstPage {
		w.messages = live
		if len(live) > 0 {
			oldest := live[len(live)-1].CreatedAt
			w.cursor = &oldest
		}
		if len(live) < w.pageSize {
			w.status = Exhausted
		} else {
			w.status = CanLoadMore
		}
		return
	}

	if len(live) == 0 {
		// The snapshot range covers the loaded head; everything in it is
		// gone.
		w.messages = nil
		return
	}

	inLive := make(map[string]bool, len(live))
	for _, msg := range live {
		inLive[msg.ID] = true
	}

	// Keep loaded messages older than the snapshot's coverage, dropping
	// any duplicates defensively.
	oldestLive := live[len(live)-1].CreatedAt
	merged := append([]models.FeedMessage(nil), live...)
	for _, msg := range w.messages {
		if inLive[msg.ID] {
			continue
		}
		if msg.CreatedAt.Before(oldestLive) {
			merged = append(merged, msg)
		}
	}
	w.messages = merged
}

// SetSentinelVisible records the visibility of the oldest-edge sentinel
// and reports whether a load should fire: only on the transition to
// visible, and only while more pages exist. Repeated frames with the
// sentinel still visible do not re-trigger.
func (w *Window) SetSentinelVisible(visible bool) bool {
	fire := visible && !w.sentinelVisible && w.status == CanLoadMore
	w.sentinelVisible = visible
	return fire
}

// LoadMore fetches the next older page. It is a no-op unless the window
// can load more; concurrent triggers while a load is in flight do
// nothing.
func (w *Window) LoadMore() error {
	if w.status != CanLoadMore {
		return nil
	}

	w.status = LoadingMore
	page, err := w.pager.QueryPage(w.query, w.cursor, w.pageSize)
	if err != nil {
		w.status = CanLoadMore
		return fmt.Errorf("load older page: %w", err)
	}

	w.appendPage(page)
	w.log.Debug("page loaded",
		zap.Int("count", len(page.Messages)),
		zap.Stringer("status", w.status))
	return nil
}

// appendPage attaches a fetched older page at the tail of the loaded
// sequence. Pages arrive newest-first and non-overlapping; ids already
// loaded are skipped defensively.
func (w *Window) appendPage(page *store.Page) {
	loaded := make(map[string]bool, len(w.messages))
	for _, msg := range w.messages {
		loaded[msg.ID] = true
	}
	for _, msg := range page.Messages {
		if !loaded[msg.ID] {
			w.messages = append(w.messages, msg)
		}
	}

	if page.NextCursor != nil {
		w.cursor = page.NextCursor
	}
	if page.Exhausted {
		w.status = Exhausted
	} else {
		w.status = CanLoadMore
	}
}
