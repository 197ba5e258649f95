package domain

import (
	"context"
	"time"
)

// ContentRepository defines persistence operations for the raw content set.
type ContentRepository interface {
	// UpsertContent inserts an item or replaces the stored item with the
	// same ID (newer data supersedes, it never merges).
	UpsertContent(ctx context.Context, item *ContentItem) error

	// DeleteContent removes an item by ID.
	DeleteContent(ctx context.Context, id string) error

	// ListContent returns up to limit items ordered by created_at
	// descending. This is the authoritative raw set a ranking pass
	// starts from.
	ListContent(ctx context.Context, limit int) ([]ContentItem, error)

	// DeleteOldContent removes items older than maxAge and any excess
	// rows beyond maxRows, keeping the most recent. Returns the number of
	// rows deleted.
	DeleteOldContent(ctx context.Context, maxAge time.Duration, maxRows int) (int64, error)
}

// CursorRepository defines persistence operations for stream cursors.
type CursorRepository interface {
	// GetCursor retrieves the last-processed stream cursor for the given
	// service name. Returns 0 if no cursor has been saved.
	GetCursor(ctx context.Context, service string) (int64, error)

	// UpdateCursor persists the stream cursor so we can resume on restart.
	UpdateCursor(ctx context.Context, service string, cursor int64) error
}

// ChangeSink receives content-change events from the upstream stream. The
// feed layer implements this to route changes into per-session update queues.
type ChangeSink interface {
	HandleChange(ctx context.Context, event ChangeEvent)
}
