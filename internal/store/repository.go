package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
	_ "modernc.org/sqlite"
)

// Repository implements domain.ContentRepository and domain.CursorRepository
// using SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository opens the SQLite database at path, verifies the connection,
// and creates the schema if needed. Use ":memory:" for an ephemeral store.
// The caller should call Close when the repository is no longer needed.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// The sqlite driver rejects concurrent writers on one connection pool
	// member; a single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &Repository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return r, nil
}

func (r *Repository) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS content_items (
			id             TEXT PRIMARY KEY,
			kind           TEXT NOT NULL,
			actor_id       TEXT NOT NULL,
			actor_name     TEXT NOT NULL DEFAULT '',
			actor_privileged INTEGER NOT NULL DEFAULT 0,
			actor_contact  TEXT NOT NULL DEFAULT '',
			actor_bio      TEXT NOT NULL DEFAULT '',
			media_url      TEXT NOT NULL DEFAULT '',
			caption        TEXT NOT NULL DEFAULT '',
			likes          INTEGER NOT NULL DEFAULT 0,
			comments       INTEGER NOT NULL DEFAULT 0,
			shares         INTEGER NOT NULL DEFAULT 0,
			created_at     TIMESTAMP NOT NULL,
			updated_at     TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_content_created_at ON content_items (created_at DESC);

		CREATE TABLE IF NOT EXISTS cursors (
			service      TEXT PRIMARY KEY,
			cursor_value INTEGER NOT NULL,
			updated_at   TIMESTAMP NOT NULL
		);
	`)
	return err
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// UpsertContent inserts an item or replaces the stored row wholesale when the
// ID already exists.
func (r *Repository) UpsertContent(ctx context.Context, item *domain.ContentItem) error {
	query := `
		INSERT INTO content_items (
			id, kind, actor_id, actor_name, actor_privileged, actor_contact,
			actor_bio, media_url, caption, likes, comments, shares,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			kind = excluded.kind,
			actor_id = excluded.actor_id,
			actor_name = excluded.actor_name,
			actor_privileged = excluded.actor_privileged,
			actor_contact = excluded.actor_contact,
			actor_bio = excluded.actor_bio,
			media_url = excluded.media_url,
			caption = excluded.caption,
			likes = excluded.likes,
			comments = excluded.comments,
			shares = excluded.shares,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		string(item.Kind),
		item.Actor.ID,
		item.Actor.DisplayName,
		boolToInt(item.Actor.Privileged),
		item.Actor.ContactHandle,
		item.Actor.Bio,
		item.MediaURL,
		item.Caption,
		item.Engagement.Likes,
		item.Engagement.Comments,
		item.Engagement.Shares,
		item.CreatedAt.UTC(),
		time.Now().UTC(),
	)
	return err
}

// DeleteContent removes an item by ID.
func (r *Repository) DeleteContent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM content_items WHERE id = ?`, id)
	return err
}

// ListContent returns up to limit items ordered by created_at descending.
func (r *Repository) ListContent(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, actor_id, actor_name, actor_privileged, actor_contact,
		       actor_bio, media_url, caption, likes, comments, shares, created_at
		FROM content_items
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query content (limit=%d): %w", limit, err)
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		var (
			item       domain.ContentItem
			kind       string
			privileged int
		)
		err := rows.Scan(
			&item.ID,
			&kind,
			&item.Actor.ID,
			&item.Actor.DisplayName,
			&privileged,
			&item.Actor.ContactHandle,
			&item.Actor.Bio,
			&item.MediaURL,
			&item.Caption,
			&item.Engagement.Likes,
			&item.Engagement.Comments,
			&item.Engagement.Shares,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}
		item.Kind = domain.ContentKind(kind)
		item.Actor.Privileged = privileged != 0
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content items: %w", err)
	}
	return items, nil
}

// DeleteOldContent removes items older than maxAge and any excess rows beyond
// maxRows, keeping the most recent. Returns the total number of rows deleted.
func (r *Repository) DeleteOldContent(ctx context.Context, maxAge time.Duration, maxRows int) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM content_items WHERE created_at < ?`,
		time.Now().UTC().Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired content: %w", err)
	}
	ttlDeleted, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `
		DELETE FROM content_items WHERE id IN (
			SELECT id FROM content_items
			ORDER BY created_at DESC, id DESC
			LIMIT -1 OFFSET ?
		)`, maxRows,
	)
	if err != nil {
		return 0, fmt.Errorf("delete excess content: %w", err)
	}
	capDeleted, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return ttlDeleted + capDeleted, nil
}

// GetCursor retrieves the saved stream cursor for a service.
func (r *Repository) GetCursor(ctx context.Context, service string) (int64, error) {
	var cursor int64
	err := r.db.QueryRowContext(ctx,
		`SELECT cursor_value FROM cursors WHERE service = ?`, service,
	).Scan(&cursor)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return cursor, err
}

// UpdateCursor upserts the stream cursor for a service.
func (r *Repository) UpdateCursor(ctx context.Context, service string, cursor int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cursors (service, cursor_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (service) DO UPDATE SET cursor_value = excluded.cursor_value, updated_at = excluded.updated_at`,
		service, cursor, time.Now().UTC(),
	)
	return err
}

// StartCleanupJob runs a background loop that prunes stored content down to
// maxAge/maxRows. It runs immediately on start and then repeats at the given
// interval, blocking until ctx is cancelled.
func (r *Repository) StartCleanupJob(ctx context.Context, logger *slog.Logger, interval, maxAge time.Duration, maxRows int) {
	run := func() {
		deleted, err := r.DeleteOldContent(ctx, maxAge, maxRows)
		if err != nil {
			logger.Error("content cleanup failed", "error", err)
		} else if deleted > 0 {
			logger.Info("content cleanup complete", "deleted", deleted)
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
