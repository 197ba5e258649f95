package feed

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func postItem(id string) domain.ContentItem {
	return domain.ContentItem{ID: id, Kind: domain.KindPost}
}

func TestUpdateQueueConservation(t *testing.T) {
	q := NewUpdateQueue(Defaults(), newFakeClock(), testLogger(), nil)

	q.Add([]domain.ContentItem{postItem("a"), postItem("b"), postItem("c")}, domain.ChangeNewPost)
	q.Add([]domain.ContentItem{postItem("d")}, domain.ChangeNewProfile)

	summary := q.Summary()
	require.Equal(t, 4, summary.Total)
	require.True(t, summary.HasContent)
	require.Equal(t, 3, summary.ByType[domain.ChangeNewPost])
	require.Equal(t, 1, summary.ByType[domain.ChangeNewProfile])

	items := q.Consume()
	require.Len(t, items, 4)
	for i, want := range []string{"a", "b", "c", "d"} {
		require.Equal(t, want, items[i].ID)
	}

	summary = q.Summary()
	require.Equal(t, 0, summary.Total)
	require.False(t, summary.HasContent)
}

func TestUpdateQueueFIFOEviction(t *testing.T) {
	opts := Defaults()
	opts.MaxQueueSize = 2
	q := NewUpdateQueue(opts, newFakeClock(), testLogger(), nil)

	q.Add([]domain.ContentItem{postItem("a")}, domain.ChangeNewPost)
	q.Add([]domain.ContentItem{postItem("b")}, domain.ChangeNewPost)
	q.Add([]domain.ContentItem{postItem("c")}, domain.ChangeNewPost)

	items := q.Consume()
	require.Len(t, items, 2)
	require.Equal(t, "b", items[0].ID)
	require.Equal(t, "c", items[1].ID)
}

func TestUpdateQueueClear(t *testing.T) {
	q := NewUpdateQueue(Defaults(), newFakeClock(), testLogger(), nil)

	q.Add([]domain.ContentItem{postItem("a")}, domain.ChangeNewPost)
	q.Clear()

	require.Empty(t, q.Consume())
	require.False(t, q.Summary().HasContent)
}

func TestUpdateQueueNoDedupOnAdd(t *testing.T) {
	q := NewUpdateQueue(Defaults(), newFakeClock(), testLogger(), nil)

	// The same identifier queued twice stays queued twice; dedup happens
	// at merge time, not here.
	q.Add([]domain.ContentItem{postItem("a")}, domain.ChangeNewPost)
	q.Add([]domain.ContentItem{postItem("a")}, domain.ChangeProfileUpdate)

	require.Equal(t, 2, q.Summary().Total)
	require.Len(t, q.Consume(), 2)
}

func TestUpdateQueueIgnoresEmptyAdd(t *testing.T) {
	q := NewUpdateQueue(Defaults(), newFakeClock(), testLogger(), nil)
	q.Add(nil, domain.ChangeNewPost)
	require.False(t, q.Summary().HasContent)
}
