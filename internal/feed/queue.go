package feed

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/metrics"
)

// QueueEntry is one buffered batch of content changes awaiting consumption.
type QueueEntry struct {
	// ID identifies the entry in logs.
	ID string

	// Type tags what kind of change produced the batch.
	Type domain.ChangeType

	// Items are the affected content items, in arrival order.
	Items []domain.ContentItem

	// QueuedAt is when the entry was added.
	QueuedAt time.Time
}

// QueueSummary reports what is waiting in the queue.
type QueueSummary struct {
	// Total is the number of queued items across all entries.
	Total int `json:"total"`

	// ByType breaks Total down by change type.
	ByType map[domain.ChangeType]int `json:"by_type"`

	// HasContent is true while at least one item is queued.
	HasContent bool `json:"has_content"`
}

// UpdateQueue buffers incoming content changes instead of applying them to
// the visible feed immediately. Items only reach the feed through Consume.
//
// The queue is a plain in-memory buffer: no deduplication happens on add, and
// overflow is handled by silently evicting the oldest entries.
type UpdateQueue struct {
	clock      Clock
	logger     *slog.Logger
	metrics    *metrics.Metrics
	maxEntries int
	batchDelay time.Duration

	mu         sync.Mutex
	entries    []QueueEntry
	count      int
	lastAdd    time.Time
	burstAdds  int
	burstItems int
}

// NewUpdateQueue creates an empty queue bounded at opts.MaxQueueSize entries.
func NewUpdateQueue(opts Options, clock Clock, logger *slog.Logger, m *metrics.Metrics) *UpdateQueue {
	opts = opts.withDefaults()
	return &UpdateQueue{
		clock:      clock,
		logger:     logger,
		metrics:    m,
		maxEntries: opts.MaxQueueSize,
		batchDelay: opts.BatchDelay,
	}
}

// Add appends a queue entry for the given items. Rapid successive adds within
// the batch delay are coalesced in the log output only; every call still
// produces its own entry.
func (q *UpdateQueue) Add(items []domain.ContentItem, changeType domain.ChangeType) {
	if len(items) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	entry := QueueEntry{
		ID:       uuid.NewString(),
		Type:     changeType,
		Items:    items,
		QueuedAt: now,
	}
	q.entries = append(q.entries, entry)
	q.count += len(items)
	q.metrics.AddQueueDepth(len(items))

	// FIFO eviction keeps the queue bounded.
	for len(q.entries) > q.maxEntries {
		evicted := q.entries[0]
		q.entries = q.entries[1:]
		q.count -= len(evicted.Items)
		q.metrics.AddQueueDepth(-len(evicted.Items))
		q.metrics.ObserveQueueEviction()
		q.logger.Debug("update queue full, evicted oldest entry",
			"entry_id", evicted.ID,
			"change_type", evicted.Type,
			"items", len(evicted.Items),
		)
	}

	// Bursts within the batch delay are reported as one coalesced log
	// line when the burst ends.
	if !q.lastAdd.IsZero() && now.Sub(q.lastAdd) < q.batchDelay {
		q.burstAdds++
		q.burstItems += len(items)
	} else {
		if q.burstAdds > 1 {
			q.logger.Info("queued update burst",
				"adds", q.burstAdds,
				"items", q.burstItems,
			)
		}
		q.burstAdds = 1
		q.burstItems = len(items)
	}
	q.lastAdd = now
}

// Consume flattens all queued entries' items into one list in arrival order,
// clears the queue, and returns the list. This is the only path by which
// queued content reaches the visible feed.
func (q *UpdateQueue) Consume() []domain.ContentItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]domain.ContentItem, 0, q.count)
	for _, entry := range q.entries {
		items = append(items, entry.Items...)
	}
	q.reset()
	return items
}

// Clear discards all queued entries without returning them. Used on manual
// full refresh, where authoritative data is re-fetched instead of replaying
// queued deltas.
func (q *UpdateQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reset()
}

// Summary returns the queued totals without consuming anything.
func (q *UpdateQueue) Summary() QueueSummary {
	q.mu.Lock()
	defer q.mu.Unlock()

	byType := make(map[domain.ChangeType]int)
	for _, entry := range q.entries {
		byType[entry.Type] += len(entry.Items)
	}
	return QueueSummary{
		Total:      q.count,
		ByType:     byType,
		HasContent: q.count > 0,
	}
}

func (q *UpdateQueue) reset() {
	q.metrics.AddQueueDepth(-q.count)
	q.entries = nil
	q.count = 0
}
