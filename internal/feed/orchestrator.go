package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/metrics"
)

// Orchestrator runs one feed session. It routes incoming content changes to
// the update queue while the user is busy, re-scores and re-ranks when the
// user is idle or asks for it, and owns all of the session's mutable state.
//
// Two concurrent feed views get two Orchestrators; they share nothing.
type Orchestrator struct {
	opts     Options
	clock    Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics
	repo     domain.ContentRepository
	scorer   *Scorer
	mixer    *Mixer
	queue    *UpdateQueue
	activity *ActivityMonitor

	mu           sync.Mutex
	session      *SessionState
	raw          map[string]domain.ContentItem
	rawOrder     []string
	visible      []domain.ContentItem
	lastRefresh  time.Time
	refreshTimer Timer
	closed       bool
}

// NewOrchestrator creates a session orchestrator. Call Start to load the
// initial content and arm the auto-refresh timer, and Close to release it.
func NewOrchestrator(opts Options, repo domain.ContentRepository, clock Clock, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		opts:     opts,
		clock:    clock,
		logger:   logger,
		metrics:  m,
		repo:     repo,
		scorer:   NewScorer(opts, clock, logger),
		mixer:    NewMixer(),
		queue:    NewUpdateQueue(opts, clock, logger, m),
		activity: NewActivityMonitor(opts, clock),
		session:  NewSessionState(opts.MaxSeen),
		raw:      make(map[string]domain.ContentItem),
	}
}

// Start loads the authoritative content set and runs the first ranking pass,
// then arms the background auto-refresh timer.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.reloadRawLocked(ctx); err != nil {
		return fmt.Errorf("load initial content: %w", err)
	}
	o.rerankLocked("initial")
	o.armRefreshTimerLocked()
	return nil
}

// Close stops the auto-refresh timer and the activity monitor's timers.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	if o.refreshTimer != nil {
		o.refreshTimer.Stop()
		o.refreshTimer = nil
	}
	o.mu.Unlock()

	o.activity.Close()
}

// HandleChange reacts to an upstream content change. While auto-refresh is
// unsafe (user scrolling, watching video, or fully idle in a backgrounded
// view) the change is buffered; otherwise it is merged in and the feed is
// re-ranked immediately.
func (o *Orchestrator) HandleChange(ctx context.Context, event domain.ChangeEvent) {
	if len(event.Items) == 0 {
		return
	}

	if !o.activity.State().AllowAutoRefresh() {
		o.queue.Add(event.Items, event.Type)
		summary := o.queue.Summary()
		o.logger.Debug("buffered content change",
			"change_type", event.Type,
			"items", len(event.Items),
			"queued_total", summary.Total,
		)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.mergeLocked(event.Items)
	o.rerankLocked("auto")
}

// RankedFeed returns the current displayable ordering.
func (o *Orchestrator) RankedFeed() []domain.ContentItem {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]domain.ContentItem, len(o.visible))
	copy(out, o.visible)
	return out
}

// QueueSummary reports what is waiting in the update queue.
func (o *Orchestrator) QueueSummary() QueueSummary {
	return o.queue.Summary()
}

// ConsumeQueuedUpdates merges all buffered changes into the raw content set
// and re-ranks. The seen set is kept, so previously surfaced items stay
// filtered out.
func (o *Orchestrator) ConsumeQueuedUpdates(ctx context.Context) {
	items := o.queue.Consume()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.mergeLocked(items)
	o.rerankLocked("consume")
}

// ManualRefresh re-scores and re-ranks the feed on user request. With reset
// true it is a full session reset: seen set, kind history, queue and the
// visible feed are all discarded, and the authoritative content is re-fetched
// from the repository instead of replaying queued deltas.
func (o *Orchestrator) ManualRefresh(ctx context.Context, reset bool) {
	if reset {
		o.mu.Lock()
		defer o.mu.Unlock()
		if err := o.reloadRawLocked(ctx); err != nil {
			o.logger.Error("refresh reload failed, keeping previous feed", "error", err)
			o.metrics.ObserveRefreshError()
			return
		}
		o.queue.Clear()
		o.session.Reset()
		o.visible = nil
		o.rerankLocked("reset")
		return
	}

	items := o.queue.Consume()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.mergeLocked(items)
	o.rerankLocked("manual")
}

// ReportInteraction forwards a user interaction to the activity monitor. If
// the session was idle long enough that over half the auto-refresh interval
// elapsed, coming back triggers an immediate catch-up refresh.
func (o *Orchestrator) ReportInteraction(ctx context.Context) {
	wasActive := o.activity.State().UserActive
	o.activity.ReportInteraction()

	o.mu.Lock()
	stale := !wasActive && o.clock.Now().Sub(o.lastRefresh) > o.opts.AutoRefreshInterval/2
	o.mu.Unlock()

	if stale {
		o.ConsumeQueuedUpdates(ctx)
		o.metrics.ObserveRefresh("foreground", 0)
	}
}

// ReportScroll forwards a scroll position to the activity monitor.
func (o *Orchestrator) ReportScroll(position float64) {
	o.activity.ReportScroll(position)
}

// SetVideoViewing forwards the video-viewing flag to the activity monitor.
func (o *Orchestrator) SetVideoViewing(viewing bool) {
	o.activity.SetVideoViewing(viewing)
}

// ActivityState returns the current activity snapshot.
func (o *Orchestrator) ActivityState() ActivityState {
	return o.activity.State()
}

// mergeLocked replaces raw items with newer data by ID, keeping arrival order
// for identifiers seen for the first time. Replacement does not touch the
// seen set: an already-surfaced identifier stays surfaced.
func (o *Orchestrator) mergeLocked(items []domain.ContentItem) {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			o.logger.Warn("dropping malformed content change", "error", err)
			continue
		}
		if _, known := o.raw[item.ID]; !known {
			o.rawOrder = append(o.rawOrder, item.ID)
		}
		o.raw[item.ID] = item
	}
}

// rerankLocked runs one scoring+ranking pass over the raw set and appends the
// newly surfaced items to the visible feed. Any failure leaves the previous
// feed untouched.
func (o *Orchestrator) rerankLocked(trigger string) {
	batch := make([]domain.ContentItem, 0, len(o.raw))
	for _, id := range o.rawOrder {
		batch = append(batch, o.raw[id])
	}

	scored := o.scorer.ScoreContent(batch, o.session)
	ranked := o.mixer.RankContent(scored, o.session)
	o.visible = append(o.visible, ranked...)
	o.lastRefresh = o.clock.Now()

	o.metrics.ObserveRefresh(trigger, len(ranked))
	o.logger.Info("feed re-ranked",
		"trigger", trigger,
		"raw_items", len(batch),
		"new_items", len(ranked),
		"visible_items", len(o.visible),
		"seen", o.session.SeenCount(),
	)
}

// reloadRawLocked replaces the raw set with the repository's authoritative
// content.
func (o *Orchestrator) reloadRawLocked(ctx context.Context) error {
	items, err := o.repo.ListContent(ctx, o.opts.MaxFeedSize)
	if err != nil {
		return fmt.Errorf("list content: %w", err)
	}

	o.raw = make(map[string]domain.ContentItem, len(items))
	o.rawOrder = o.rawOrder[:0]
	for _, item := range items {
		if err := item.Validate(); err != nil {
			o.logger.Warn("skipping malformed stored item", "error", err)
			continue
		}
		o.rawOrder = append(o.rawOrder, item.ID)
		o.raw[item.ID] = item
	}
	return nil
}

// armRefreshTimerLocked schedules the periodic background refresh. The timer
// only consumes the queue when the user is active and it is safe to disturb
// the feed; it never fires work into a fully idle session.
func (o *Orchestrator) armRefreshTimerLocked() {
	if o.closed {
		return
	}
	o.refreshTimer = o.clock.AfterFunc(o.opts.AutoRefreshInterval, func() {
		state := o.activity.State()
		if state.UserActive && state.AllowAutoRefresh() {
			o.ConsumeQueuedUpdates(context.Background())
		}

		o.mu.Lock()
		defer o.mu.Unlock()
		if !o.closed && o.refreshTimer != nil {
			o.refreshTimer.Reset(o.opts.AutoRefreshInterval)
		}
	})
}
