package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/metrics"
)

// defaultSessionTTL is how long an untouched session is kept before its
// orchestrator is torn down.
const defaultSessionTTL = 30 * time.Minute

// SessionManager owns one Orchestrator per feed session. Sessions are created
// on first use, share nothing with each other, and are expired after sitting
// untouched for the session TTL.
//
// The manager implements domain.ChangeSink by fanning each upstream change
// out to every live session.
type SessionManager struct {
	opts    Options
	repo    domain.ContentRepository
	clock   Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
	ttl     time.Duration

	mu       sync.Mutex
	sessions map[string]*managedSession
	closed   bool
}

type managedSession struct {
	orch      *Orchestrator
	lastTouch time.Time
}

// NewSessionManager creates a manager. ttl <= 0 selects the default session
// TTL.
func NewSessionManager(opts Options, repo domain.ContentRepository, clock Clock, logger *slog.Logger, m *metrics.Metrics, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionManager{
		opts:     opts.withDefaults(),
		repo:     repo,
		clock:    clock,
		logger:   logger,
		metrics:  m,
		ttl:      ttl,
		sessions: make(map[string]*managedSession),
	}
}

// Session returns the orchestrator for the given session ID, creating and
// starting it on first use.
func (sm *SessionManager) Session(ctx context.Context, id string) (*Orchestrator, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if ms, ok := sm.sessions[id]; ok {
		ms.lastTouch = sm.clock.Now()
		return ms.orch, nil
	}

	orch := NewOrchestrator(sm.opts, sm.repo, sm.clock, sm.logger.With("session", id), sm.metrics)
	if err := orch.Start(ctx); err != nil {
		orch.Close()
		return nil, err
	}

	sm.sessions[id] = &managedSession{orch: orch, lastTouch: sm.clock.Now()}
	sm.metrics.SetActiveSessions(len(sm.sessions))
	sm.logger.Info("feed session created", "session", id, "sessions", len(sm.sessions))
	return orch, nil
}

// HandleChange fans an upstream content change out to all live sessions.
// Each session decides independently whether to buffer or apply it.
func (sm *SessionManager) HandleChange(ctx context.Context, event domain.ChangeEvent) {
	sm.mu.Lock()
	orchs := make([]*Orchestrator, 0, len(sm.sessions))
	for _, ms := range sm.sessions {
		orchs = append(orchs, ms.orch)
	}
	sm.mu.Unlock()

	for _, orch := range orchs {
		orch.HandleChange(ctx, event)
	}
}

// ExpireIdle tears down sessions untouched for longer than the TTL and
// returns how many were removed.
func (sm *SessionManager) ExpireIdle() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.clock.Now()
	expired := 0
	for id, ms := range sm.sessions {
		if now.Sub(ms.lastTouch) > sm.ttl {
			ms.orch.Close()
			delete(sm.sessions, id)
			expired++
			sm.logger.Info("feed session expired", "session", id)
		}
	}
	if expired > 0 {
		sm.metrics.SetActiveSessions(len(sm.sessions))
	}
	return expired
}

// StartJanitor runs ExpireIdle on a fixed cadence until ctx is cancelled.
func (sm *SessionManager) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.ExpireIdle()
		}
	}
}

// Close tears down every session.
func (sm *SessionManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.closed = true
	for id, ms := range sm.sessions {
		ms.orch.Close()
		delete(sm.sessions, id)
	}
	sm.metrics.SetActiveSessions(0)
}
