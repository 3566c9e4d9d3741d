package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatfeed/models"
	"chatfeed/store"
)

// fakePager serves pages from a canned call list and records cursors.
type fakePager struct {
	pages   []*store.Page
	err     error
	cursors []*time.Time
	onCall  func()
}

func (p *fakePager) QueryPage(q store.Query, cursor *time.Time, limit int) (*store.Page, error) {
	p.cursors = append(p.cursors, cursor)
	if p.onCall != nil {
		p.onCall()
	}
	if p.err != nil {
		return nil, p.err
	}
	page := p.pages[0]
	p.pages = p.pages[1:]
	return page, nil
}

func msgsAt(base time.Time, ids ...string) []models.FeedMessage {
	out := make([]models.FeedMessage, len(ids))
	for i, id := range ids {
		// Newest first, one minute apart.
		out[i] = feedMsg(id, "alice", base.Add(-time.Duration(i)*time.Minute))
	}
	return out
}

func TestWindowFirstSnapshotFullPage(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	w := NewWindow(&fakePager{}, store.Query{}, 3, nil)

	assert.Equal(t, LoadingFirstPage, w.Status())

	w.ApplyLive(msgsAt(base, "m3", "m2", "m1"))
	assert.Equal(t, CanLoadMore, w.Status())
	assert.Len(t, w.Messages(), 3)
}

func TestWindowFirstSnapshotShortPageExhausts(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	w := NewWindow(&fakePager{}, store.Query{}, 5, nil)

	w.ApplyLive(msgsAt(base, "m2", "m1"))
	assert.Equal(t, Exhausted, w.Status())
}

func TestWindowLoadMoreAppendsOlderPage(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	older := base.Add(-time.Hour)
	next := older.Add(-time.Minute)

	pager := &fakePager{pages: []*store.Page{
		{Messages: msgsAt(older, "m1", "m0"), NextCursor: &next, Exhausted: true},
	}}
	w := NewWindow(pager, store.Query{}, 2, nil)
	w.ApplyLive(msgsAt(base, "m3", "m2"))

	require.NoError(t, w.LoadMore())
	assert.Equal(t, Exhausted, w.Status())

	ids := make([]string, 0, 4)
	for _, m := range w.Messages() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m3", "m2", "m1", "m0"}, ids)

	// The request carried the oldest loaded timestamp as its cursor.
	require.Len(t, pager.cursors, 1)
	require.NotNil(t, pager.cursors[0])
	assert.Equal(t, base.Add(-time.Minute), *pager.cursors[0])
}

func TestWindowLoadMoreNoOpOutsideCanLoadMore(t *testing.T) {
	pager := &fakePager{}
	w := NewWindow(pager, store.Query{}, 3, nil)

	// Before the first snapshot.
	require.NoError(t, w.LoadMore())
	assert.Empty(t, pager.cursors)
	assert.Equal(t, LoadingFirstPage, w.Status())

	// After exhaustion.
	w.ApplyLive(msgsAt(time.Now(), "m1"))
	require.Equal(t, Exhausted, w.Status())
	require.NoError(t, w.LoadMore())
	assert.Empty(t, pager.cursors)
}

func TestWindowLoadMoreInFlightStatus(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	pager := &fakePager{pages: []*store.Page{{Exhausted: true}}}
	w := NewWindow(pager, store.Query{}, 2, nil)
	w.ApplyLive(msgsAt(base, "m2", "m1"))

	var during PageStatus
	pager.onCall = func() { during = w.Status() }

	require.NoError(t, w.LoadMore())
	assert.Equal(t, LoadingMore, during)
}

func TestWindowLoadMoreErrorRevertsStatus(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	pager := &fakePager{err: errors.New("db gone")}
	w := NewWindow(pager, store.Query{}, 2, nil)
	w.ApplyLive(msgsAt(base, "m2", "m1"))

	err := w.LoadMore()
	require.Error(t, err)
	assert.Equal(t, CanLoadMore, w.Status())
	assert.Len(t, w.Messages(), 2)

	// The retained cursor lets a retry fetch the same page.
	pager.err = nil
	pager.pages = []*store.Page{{Exhausted: true}}
	require.NoError(t, w.LoadMore())
	assert.Equal(t, Exhausted, w.Status())
}

func TestWindowSentinelEdgeTriggered(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	w := NewWindow(&fakePager{}, store.Query{}, 2, nil)
	w.ApplyLive(msgsAt(base, "m2", "m1"))
	require.Equal(t, CanLoadMore, w.Status())

	assert.True(t, w.SetSentinelVisible(true))
	// Still visible on the next frame: no re-trigger.
	assert.False(t, w.SetSentinelVisible(true))
	assert.False(t, w.SetSentinelVisible(false))
	// Scrolled back to the edge.
	assert.True(t, w.SetSentinelVisible(true))
}

func TestWindowSentinelIgnoredWhenNoMorePages(t *testing.T) {
	w := NewWindow(&fakePager{}, store.Query{}, 5, nil)
	w.ApplyLive(msgsAt(time.Now(), "m1"))
	require.Equal(t, Exhausted, w.Status())

	assert.False(t, w.SetSentinelVisible(true))
}

func TestWindowApplyLiveMergesWithOlderTail(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	w := NewWindow(&fakePager{}, store.Query{}, 2, nil)
	w.ApplyLive(msgsAt(base, "m4", "m3"))

	// Pretend an older page was loaded.
	older := msgsAt(base.Add(-time.Hour), "m2", "m1")
	w.messages = append(w.messages, older...)

	// A new message arrives; the snapshot still covers only the head.
	live := append(msgsAt(base.Add(time.Minute), "m5"), msgsAt(base, "m4", "m3")...)
	w.ApplyLive(live)

	ids := make([]string, 0, 5)
	for _, m := range w.Messages() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m5", "m4", "m3", "m2", "m1"}, ids)
}

func TestWindowApplyLiveReplacesEditedMessage(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	w := NewWindow(&fakePager{}, store.Query{}, 2, nil)
	w.ApplyLive(msgsAt(base, "m2", "m1"))

	edited := msgsAt(base, "m2", "m1")
	edited[0].Body = "corrected"
	now := base.Add(time.Minute)
	edited[0].UpdatedAt = &now
	w.ApplyLive(edited)

	require.Len(t, w.Messages(), 2)
	assert.Equal(t, "corrected", w.Messages()[0].Body)
	assert.NotNil(t, w.Messages()[0].UpdatedAt)
}

func TestWindowApplyLiveDropsDeletedFromCoveredRange(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	w := NewWindow(&fakePager{}, store.Query{}, 3, nil)
	w.ApplyLive(msgsAt(base, "m3", "m2", "m1"))

	// m2 deleted: the snapshot range still spans m3..m1 but omits it.
	live := []models.FeedMessage{
		feedMsg("m3", "alice", base),
		feedMsg("m1", "alice", base.Add(-2*time.Minute)),
	}
	w.ApplyLive(live)

	ids := make([]string, 0, 2)
	for _, m := range w.Messages() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m3", "m1"}, ids)
}

func TestWindowApplyLiveEmptySnapshotClears(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	w := NewWindow(&fakePager{}, store.Query{}, 2, nil)
	w.ApplyLive(msgsAt(base, "m2", "m1"))

	w.ApplyLive(nil)
	assert.Empty(t, w.Messages())
}

func TestPageStatusString(t *testing.T) {
	assert.Equal(t, "LoadingFirstPage", LoadingFirstPage.String())
	assert.Equal(t, "CanLoadMore", CanLoadMore.String())
	assert.Equal(t, "LoadingMore", LoadingMore.String())
	assert.Equal(t, "Exhausted", Exhausted.String())
}
