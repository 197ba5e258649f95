package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
)

func testManager(t *testing.T, repo *memRepo, ttl time.Duration) (*SessionManager, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	sm := NewSessionManager(Defaults(), repo, clock, testLogger(), nil, ttl)
	t.Cleanup(sm.Close)
	return sm, clock
}

func TestSessionManagerReusesSession(t *testing.T) {
	sm, _ := testManager(t, &memRepo{}, 0)
	ctx := context.Background()

	a, err := sm.Session(ctx, "alice")
	require.NoError(t, err)
	again, err := sm.Session(ctx, "alice")
	require.NoError(t, err)
	require.Same(t, a, again)

	b, err := sm.Session(ctx, "bob")
	require.NoError(t, err)
	require.NotSame(t, a, b)
}

func TestSessionManagerFansOutChanges(t *testing.T) {
	sm, _ := testManager(t, &memRepo{}, 0)
	ctx := context.Background()

	a, err := sm.Session(ctx, "alice")
	require.NoError(t, err)
	b, err := sm.Session(ctx, "bob")
	require.NoError(t, err)

	// Alice is active, Bob is idle: the same change applies immediately
	// for one session and is buffered for the other.
	a.ReportInteraction(ctx)
	sm.HandleChange(ctx, domain.ChangeEvent{
		Type:  domain.ChangeNewPost,
		Items: []domain.ContentItem{freshPost(a, "p1")},
	})

	require.Len(t, a.RankedFeed(), 1)
	require.Empty(t, b.RankedFeed())
	require.True(t, b.QueueSummary().HasContent)
}

func TestSessionManagerExpiresIdleSessions(t *testing.T) {
	sm, clock := testManager(t, &memRepo{}, 10*time.Minute)
	ctx := context.Background()

	_, err := sm.Session(ctx, "alice")
	require.NoError(t, err)

	require.Zero(t, sm.ExpireIdle())

	clock.Advance(11 * time.Minute)
	require.Equal(t, 1, sm.ExpireIdle())

	// A fresh lookup after expiry creates a new session.
	again, err := sm.Session(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, again)
}

func TestSessionManagerTouchDefersExpiry(t *testing.T) {
	sm, clock := testManager(t, &memRepo{}, 10*time.Minute)
	ctx := context.Background()

	_, err := sm.Session(ctx, "alice")
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = sm.Session(ctx, "alice")
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	require.Zero(t, sm.ExpireIdle(), "touched session must survive the full TTL")
}
