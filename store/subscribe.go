package store

import (
	"errors"

	"go.uber.org/zap"

	"chatfeed/models"
)

// Snapshot is the materialized result of a subscribed query at one point
// in time. Root is only populated for thread queries; it stays nil once
// the thread's root message has been deleted.
type Snapshot struct {
	Root     *models.FeedMessage
	Messages []models.FeedMessage
}

type SnapshotResult struct {
	Snapshot Snapshot
	Err      error
}

// Subscription delivers a fresh snapshot for its query whenever a
// mutation touches the query's scope. The channel is buffered with depth
// one and stale snapshots are replaced, so a slow consumer only ever sees
// the latest state.
type Subscription struct {
	C <-chan SnapshotResult

	ch    chan SnapshotResult
	s     *Store
	id    int
	q     Query
	limit int
	done  bool
}

// Subscribe registers a live query. The initial snapshot is delivered
// immediately; limit bounds how many messages a snapshot covers and can
// be grown with Extend as older pages are loaded.
func (s *Store) Subscribe(q Query, limit int) *Subscription {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	sub := &Subscription{
		ch:    make(chan SnapshotResult, 1),
		s:     s,
		id:    s.nextWatch,
		q:     q,
		limit: limit,
	}
	sub.C = sub.ch
	s.nextWatch++
	s.watchers[sub.id] = sub

	s.push(sub)
	return sub
}

// Extend widens the subscription's snapshot range so live updates keep
// covering messages loaded through pagination.
func (sub *Subscription) Extend(limit int) {
	sub.s.watchMu.Lock()
	defer sub.s.watchMu.Unlock()

	if sub.done || limit <= sub.limit {
		return
	}
	sub.limit = limit
	sub.s.push(sub)
}

// Close stops delivery. Safe to call more than once.
func (sub *Subscription) Close() {
	sub.s.watchMu.Lock()
	defer sub.s.watchMu.Unlock()

	if sub.done {
		return
	}
	sub.done = true
	delete(sub.s.watchers, sub.id)
	close(sub.ch)
}

// notify re-materializes every subscription whose scope the event
// touches.
func (s *Store) notify(ev models.MessageEventPayload) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	for _, sub := range s.watchers {
		if matches(sub.q, ev) {
			s.push(sub)
		}
	}
}

// push computes and delivers the current snapshot. Callers hold watchMu.
// A pending unread snapshot is dropped first: last snapshot wins.
func (s *Store) push(sub *Subscription) {
	if sub.done {
		return
	}

	res := SnapshotResult{}

	if sub.q.ParentID != nil {
		root, err := s.GetFeedMessage(*sub.q.ParentID)
		switch {
		case err == nil:
			res.Snapshot.Root = root
		case errors.Is(err, ErrNotFound):
			// Root deleted: deliver an empty thread, the feed renders
			// its not-found placeholder.
		default:
			res.Err = err
		}
	}

	if res.Err == nil {
		page, err := s.QueryPage(sub.q, nil, sub.limit)
		if err != nil {
			res.Err = err
		} else {
			res.Snapshot.Messages = page.Messages
		}
	}

	if res.Err != nil {
		s.log.Warn("snapshot materialization failed", zap.Error(res.Err))
	}

	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- res
}

func matches(q Query, ev models.MessageEventPayload) bool {
	if q.ParentID != nil {
		if ev.ParentID != nil && *ev.ParentID == *q.ParentID {
			return true
		}
		return ev.MessageID == *q.ParentID
	}
	if q.ChannelID != nil {
		return ev.ChannelID != nil && *ev.ChannelID == *q.ChannelID
	}
	if q.ConversationID != nil {
		return ev.ConversationID != nil && *ev.ConversationID == *q.ConversationID
	}
	return false
}
