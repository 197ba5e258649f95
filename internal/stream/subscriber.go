package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/metrics"
)

const (
	cursorServiceName  = "upstream"
	cursorSaveInterval = 5 * time.Second
	reconnectDelay     = 5 * time.Second
	statsLogInterval   = 30 * time.Second
)

// wantedKinds is the set of content kinds this subscriber requests from the
// upstream change feed.
var wantedKinds = []string{"post", "profile"}

// Subscriber connects to the upstream change-event websocket, persists each
// change, and forwards it to the feed layer.
type Subscriber struct {
	url     string
	repo    domain.ContentRepository
	cursors domain.CursorRepository
	sink    domain.ChangeSink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSubscriber creates a change-stream subscriber.
func NewSubscriber(
	streamURL string,
	repo domain.ContentRepository,
	cursors domain.CursorRepository,
	sink domain.ChangeSink,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Subscriber {
	return &Subscriber{
		url:     streamURL,
		repo:    repo,
		cursors: cursors,
		sink:    sink,
		logger:  logger,
		metrics: m,
	}
}

// Start connects to the stream and processes events until the context is
// cancelled. It automatically reconnects on transient errors.
func (s *Subscriber) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.subscribe(ctx); err != nil {
				s.logger.Error("stream connection error, reconnecting", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(reconnectDelay):
					// backoff before reconnecting
				}
			}
		}
	}
}

func (s *Subscriber) buildURL(cursor int64) string {
	u, _ := url.Parse(s.url)
	q := u.Query()
	for _, k := range wantedKinds {
		q.Add("wantedKinds", k)
	}
	if cursor > 0 {
		q.Set("cursor", fmt.Sprintf("%d", cursor))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Subscriber) subscribe(ctx context.Context) error {
	cursor, err := s.cursors.GetCursor(ctx, cursorServiceName)
	if err != nil {
		s.logger.Warn("failed to load cursor, starting from live", "error", err)
	}

	wsURL := s.buildURL(cursor)
	s.logger.Info("connecting to change stream", "url", wsURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	s.logger.Info("connected to change stream")

	lastCursorSave := time.Now()
	var latestCursor int64
	var eventsReceived, changesApplied int64
	lastStatsLog := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		var event wireEvent
		if err := json.Unmarshal(message, &event); err != nil {
			s.logger.Error("failed to parse event", "error", err)
			continue
		}

		eventsReceived++
		latestCursor = event.TimeUS

		if event.Kind == "change" && event.Change != nil {
			if err := s.handleChange(ctx, event.Change); err != nil {
				s.logger.Error("failed to handle change", "error", err)
			} else {
				changesApplied++
			}
		}

		if time.Since(lastStatsLog) >= statsLogInterval {
			s.logger.Info("stream stats",
				"events_received", eventsReceived,
				"changes_applied", changesApplied,
			)
			lastStatsLog = time.Now()
		}

		if time.Since(lastCursorSave) >= cursorSaveInterval {
			if err := s.cursors.UpdateCursor(ctx, cursorServiceName, latestCursor); err != nil {
				s.logger.Error("failed to save cursor", "error", err)
			} else {
				lastCursorSave = time.Now()
			}
		}
	}
}

// handleChange persists one change and forwards it to the feed layer. The
// feed layer decides per session whether the change is applied immediately or
// buffered.
func (s *Subscriber) handleChange(ctx context.Context, change *wireChange) error {
	if change.Operation == "delete" {
		if change.Record == nil {
			return nil
		}
		s.metrics.ObserveStreamEvent("delete")
		return s.repo.DeleteContent(ctx, change.Record.ID)
	}

	if change.Record == nil {
		return nil
	}

	changeType, err := change.changeType()
	if err != nil {
		return err
	}

	item := change.Record.toContentItem()
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	if err := s.repo.UpsertContent(ctx, &item); err != nil {
		return fmt.Errorf("upsert content: %w", err)
	}

	s.metrics.ObserveStreamEvent(string(changeType))
	s.sink.HandleChange(ctx, domain.ChangeEvent{
		Type:       changeType,
		Items:      []domain.ContentItem{item},
		ReceivedAt: time.Now().UTC(),
	})
	return nil
}
