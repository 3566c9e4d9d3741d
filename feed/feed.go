// Package feed implements the incremental message-feed engine: a
// paginated window over a live message stream, date-bucketed grouping
// with visual compaction, reaction and thread-reply aggregation, and
// confirm-gated optimistic mutations.
package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chatfeed/models"
	"chatfeed/store"
)

// Source is what a feed consumes from the backing store: a live query
// subscription plus backward page fetches.
type Source interface {
	Subscribe(q store.Query, limit int) *store.Subscription
	Pager
}

// RenderedMessage is one message with all per-message view state derived.
type RenderedMessage struct {
	models.FeedMessage

	Compact      bool
	Edited       bool
	EmptyBody    bool
	IsAuthor     bool
	Editing      bool
	Capabilities CapabilitySet
	Reactions    []models.ReactionGroup
	Rollup       Rollup
}

// RenderedBucket is one date-separated group, oldest message first.
type RenderedBucket struct {
	Key      string
	Label    string
	Messages []RenderedMessage
}

// View is the fully derived state of a feed at one instant. Buckets read
// top to bottom: oldest day first, newest last.
type View struct {
	Buckets  []RenderedBucket
	Root     *RenderedMessage
	NotFound bool
	Status   PageStatus
}

// Config wires one feed to its context.
type Config struct {
	Source   Source
	Query    store.Query
	Member   models.MemberSummary
	Panel    *PanelState
	PageSize int

	// IsEmpty is the rendering layer's empty-document capability; bodies
	// it reports empty are flagged for suppression.
	IsEmpty func(body string) bool

	Location *time.Location
	Logger   *zap.Logger
	OnView   func(View)
}

// Feed is the composition root for one (channel | conversation | thread)
// context. It owns the pagination window exclusively and re-derives the
// view whenever the subscription emits; all work happens on the Run
// goroutine, so derivations never race.
type Feed struct {
	cfg    Config
	window *Window
	log    *zap.Logger

	root        *models.FeedMessage
	rootMissing bool

	sentinel chan bool
}

func New(cfg Config) *Feed {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.IsEmpty == nil {
		cfg.IsEmpty = func(string) bool { return false }
	}
	if cfg.Panel == nil {
		cfg.Panel = NewPanelState()
	}

	return &Feed{
		cfg:      cfg,
		window:   NewWindow(cfg.Source, cfg.Query, cfg.PageSize, cfg.Logger),
		log:      cfg.Logger,
		sentinel: make(chan bool, 8),
	}
}

// SentinelVisible reports a visibility change of the oldest-edge sentinel
// from the scroll container. Callable from any goroutine.
func (f *Feed) SentinelVisible(visible bool) {
	select {
	case f.sentinel <- visible:
	default:
	}
}

// Run consumes the subscription until ctx is cancelled. Cancellation
// tears the window down: the subscription closes and no further
// snapshots are consumed.
func (f *Feed) Run(ctx context.Context) {
	sub := f.cfg.Source.Subscribe(f.cfg.Query, f.cfg.PageSize)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case res, ok := <-sub.C:
			if !ok {
				return
			}
			// Last snapshot wins: anything queued behind this one
			// supersedes it.
			for {
				select {
				case next, ok := <-sub.C:
					if !ok {
						return
					}
					res = next
					continue
				default:
				}
				break
			}
			f.applySnapshot(res)

		case visible := <-f.sentinel:
			if f.window.SetSentinelVisible(visible) {
				if err := f.window.LoadMore(); err != nil {
					f.log.Warn("load more failed", zap.Error(err))
				}
				sub.Extend(len(f.window.Messages()) + f.cfg.PageSize)
			}
			f.emit()
		}
	}
}

func (f *Feed) applySnapshot(res store.SnapshotResult) {
	if res.Err != nil {
		// Keep rendering the last good snapshot.
		f.log.Warn("snapshot error", zap.Error(res.Err))
		return
	}

	if f.cfg.Query.ParentID != nil {
		f.root = res.Snapshot.Root
		f.rootMissing = res.Snapshot.Root == nil
	}
	f.window.ApplyLive(res.Snapshot.Messages)
	f.emit()
}

func (f *Feed) emit() {
	if f.cfg.OnView != nil {
		f.cfg.OnView(f.View())
	}
}

// View derives the rendered state from the current window. Labels are
// computed against the current clock so day boundaries are honored on
// every render.
func (f *Feed) View() View {
	now := time.Now().In(f.cfg.Location)
	isThread := f.cfg.Query.ParentID != nil

	if isThread && f.rootMissing {
		return View{NotFound: true, Status: f.window.Status()}
	}

	buckets := GroupByDay(f.window.Messages(), f.cfg.Location)

	view := View{Status: f.window.Status()}
	// Buckets group newest day first; reverse so the view reads oldest
	// to newest top to bottom.
	for i := len(buckets) - 1; i >= 0; i-- {
		b := buckets[i]
		rb := RenderedBucket{
			Key:      b.Key,
			Label:    DayLabel(b.Key, now),
			Messages: make([]RenderedMessage, 0, len(b.Messages)),
		}
		for j := range b.Messages {
			var prev *models.FeedMessage
			if j > 0 {
				prev = &b.Messages[j-1]
			}
			rb.Messages = append(rb.Messages, f.render(&b.Messages[j], prev, isThread))
		}
		view.Buckets = append(view.Buckets, rb)
	}

	if isThread && f.root != nil {
		root := f.render(f.root, nil, true)
		view.Root = &root
	}
	return view
}

func (f *Feed) render(msg, prev *models.FeedMessage, isThread bool) RenderedMessage {
	isAuthor := msg.MemberID == f.cfg.Member.ID

	r := RenderedMessage{
		FeedMessage:  *msg,
		Compact:      Compact(prev, msg),
		Edited:       msg.UpdatedAt != nil,
		EmptyBody:    f.cfg.IsEmpty(msg.Body),
		IsAuthor:     isAuthor,
		Editing:      f.cfg.Panel.EditingID() == msg.ID,
		Capabilities: EvaluateCapabilities(f.cfg.Member.Role, isAuthor),
		Reactions:    AggregateReactions(msg.Reactions),
	}
	// Thread feeds hide the per-message thread bar; replies never nest.
	if !isThread {
		r.Rollup = DeriveRollup(msg.Replies)
	}
	return r
}
