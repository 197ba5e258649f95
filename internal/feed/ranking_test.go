package feed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
)

func scoredItem(id string, kind domain.ContentKind, total float64) domain.ContentItem {
	return domain.ContentItem{
		ID:    id,
		Kind:  kind,
		Score: &domain.ContentScore{Total: total},
	}
}

func TestRankContentSortsByScore(t *testing.T) {
	m := NewMixer()
	session := NewSessionState(0)

	items := []domain.ContentItem{
		scoredItem("low", domain.KindPost, 0.2),
		scoredItem("high", domain.KindPost, 0.9),
		scoredItem("mid", domain.KindPost, 0.5),
	}

	out := m.RankContent(items, session)
	require.Len(t, out, 3)
	require.Equal(t, "high", out[0].ID)
	require.Equal(t, "mid", out[1].ID)
	require.Equal(t, "low", out[2].ID)
}

func TestRankContentInterleavesKinds(t *testing.T) {
	m := NewMixer()
	session := NewSessionState(0)

	var items []domain.ContentItem
	for i := 0; i < 4; i++ {
		items = append(items, scoredItem(fmt.Sprintf("post-%d", i), domain.KindPost, 0.9-float64(i)*0.1))
	}
	for i := 0; i < 2; i++ {
		items = append(items, scoredItem(fmt.Sprintf("profile-%d", i), domain.KindProfile, 0.85-float64(i)*0.1))
	}

	out := m.RankContent(items, session)
	require.Len(t, out, 6)

	// Alternates until profiles run out, then continues with posts only.
	wantKinds := []domain.ContentKind{
		domain.KindPost, domain.KindProfile,
		domain.KindPost, domain.KindProfile,
		domain.KindPost, domain.KindPost,
	}
	for i, want := range wantKinds {
		require.Equal(t, want, out[i].Kind, "position %d", i)
	}
}

func TestRankContentSingleKindDegenerates(t *testing.T) {
	m := NewMixer()
	session := NewSessionState(0)

	items := []domain.ContentItem{
		scoredItem("b", domain.KindProfile, 0.5),
		scoredItem("a", domain.KindProfile, 0.9),
	}

	out := m.RankContent(items, session)
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].ID)
	require.Equal(t, "b", out[1].ID)
}

func TestRankContentNeverResurfacesSeen(t *testing.T) {
	m := NewMixer()
	session := NewSessionState(0)

	items := []domain.ContentItem{
		scoredItem("a", domain.KindPost, 0.5),
		scoredItem("b", domain.KindProfile, 0.4),
	}

	first := m.RankContent(items, session)
	require.Len(t, first, 2)

	// Re-ranking the same items emits nothing, even with higher scores.
	items[0].Score.Total = 99
	items[1].Score.Total = 99
	second := m.RankContent(items, session)
	require.Empty(t, second)
}

func TestRankContentStableTieBreak(t *testing.T) {
	m := NewMixer()
	session := NewSessionState(0)

	items := []domain.ContentItem{
		scoredItem("first", domain.KindPost, 0.5),
		scoredItem("second", domain.KindPost, 0.5),
		scoredItem("third", domain.KindPost, 0.5),
	}

	out := m.RankContent(items, session)
	require.Equal(t, []string{"first", "second", "third"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestRankContentSkipsUnscored(t *testing.T) {
	m := NewMixer()
	session := NewSessionState(0)

	items := []domain.ContentItem{
		{ID: "unscored", Kind: domain.KindPost},
		scoredItem("scored", domain.KindPost, 0.5),
	}

	out := m.RankContent(items, session)
	require.Len(t, out, 1)
	require.Equal(t, "scored", out[0].ID)
}

func TestRankContentRecordsHistory(t *testing.T) {
	m := NewMixer()
	session := NewSessionState(0)

	items := []domain.ContentItem{
		scoredItem("a", domain.KindPost, 0.9),
		scoredItem("b", domain.KindProfile, 0.8),
	}
	m.RankContent(items, session)

	recent := session.RecentKinds(diversityLookback)
	require.Equal(t, []domain.ContentKind{domain.KindPost, domain.KindProfile}, recent)
	require.True(t, session.Seen("a"))
	require.True(t, session.Seen("b"))
}

func TestSessionStateHistoryTrim(t *testing.T) {
	s := NewSessionState(0)

	for i := 0; i < historyHighWater+1; i++ {
		s.AppendKind(domain.KindPost)
	}

	// Exceeding the high-water mark trims down to the low-water mark.
	require.Len(t, s.RecentKinds(historyHighWater+1), historyLowWater)
}

func TestSessionStateSeenCap(t *testing.T) {
	s := NewSessionState(3)

	for _, id := range []string{"a", "b", "c", "d"} {
		s.MarkSeen(id)
	}

	require.Equal(t, 3, s.SeenCount())
	require.False(t, s.Seen("a"), "oldest identifier evicted")
	require.True(t, s.Seen("d"))
}

func TestSessionStateReset(t *testing.T) {
	s := NewSessionState(0)
	s.MarkSeen("a")
	s.AppendKind(domain.KindPost)

	s.Reset()
	require.Zero(t, s.SeenCount())
	require.Empty(t, s.RecentKinds(10))
}
