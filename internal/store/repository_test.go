package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
)

func testRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testItem(id string, createdAt time.Time) *domain.ContentItem {
	return &domain.ContentItem{
		ID:   id,
		Kind: domain.KindPost,
		Actor: domain.Actor{
			ID:          "actor-" + id,
			DisplayName: "Actor " + id,
		},
		Caption:    "caption " + id,
		Engagement: domain.Engagement{Likes: 3, Comments: 1},
		CreatedAt:  createdAt,
	}
}

func TestUpsertAndListContent(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.UpsertContent(ctx, testItem("a", now.Add(-2*time.Hour))))
	require.NoError(t, repo.UpsertContent(ctx, testItem("b", now)))
	require.NoError(t, repo.UpsertContent(ctx, testItem("c", now.Add(-time.Hour))))

	items, err := repo.ListContent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Newest first.
	require.Equal(t, "b", items[0].ID)
	require.Equal(t, "c", items[1].ID)
	require.Equal(t, "a", items[2].ID)
	require.Equal(t, "Actor b", items[0].Actor.DisplayName)
	require.Equal(t, 3, items[0].Engagement.Likes)
}

func TestUpsertReplacesExisting(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	item := testItem("a", now)
	require.NoError(t, repo.UpsertContent(ctx, item))

	item.Caption = "edited"
	item.Engagement.Likes = 99
	item.Actor.Privileged = true
	require.NoError(t, repo.UpsertContent(ctx, item))

	items, err := repo.ListContent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "edited", items[0].Caption)
	require.Equal(t, 99, items[0].Engagement.Likes)
	require.True(t, items[0].Actor.Privileged)
}

func TestListContentHonorsLimit(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 5; i++ {
		item := testItem(fmt.Sprintf("item-%d", i), now.Add(-time.Duration(i)*time.Minute))
		require.NoError(t, repo.UpsertContent(ctx, item))
	}

	items, err := repo.ListContent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "item-0", items[0].ID)
	require.Equal(t, "item-1", items[1].ID)
}

func TestDeleteContent(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.UpsertContent(ctx, testItem("a", now)))
	require.NoError(t, repo.DeleteContent(ctx, "a"))

	items, err := repo.ListContent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, items)

	// Deleting a missing ID is not an error.
	require.NoError(t, repo.DeleteContent(ctx, "missing"))
}

func TestDeleteOldContent(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.UpsertContent(ctx, testItem("old", now.Add(-48*time.Hour))))
	require.NoError(t, repo.UpsertContent(ctx, testItem("fresh-1", now)))
	require.NoError(t, repo.UpsertContent(ctx, testItem("fresh-2", now.Add(-time.Minute))))

	deleted, err := repo.DeleteOldContent(ctx, 24*time.Hour, 100)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	items, err := repo.ListContent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestDeleteOldContentEnforcesRowCap(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 6; i++ {
		item := testItem(fmt.Sprintf("item-%d", i), now.Add(-time.Duration(i)*time.Minute))
		require.NoError(t, repo.UpsertContent(ctx, item))
	}

	deleted, err := repo.DeleteOldContent(ctx, 24*time.Hour, 4)
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	items, err := repo.ListContent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 4)

	// The most recent rows survive.
	require.Equal(t, "item-0", items[0].ID)
	require.Equal(t, "item-3", items[3].ID)
}

func TestCursorRoundTrip(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	cursor, err := repo.GetCursor(ctx, "upstream")
	require.NoError(t, err)
	require.Zero(t, cursor)

	require.NoError(t, repo.UpdateCursor(ctx, "upstream", 12345))
	cursor, err = repo.GetCursor(ctx, "upstream")
	require.NoError(t, err)
	require.EqualValues(t, 12345, cursor)

	require.NoError(t, repo.UpdateCursor(ctx, "upstream", 67890))
	cursor, err = repo.GetCursor(ctx, "upstream")
	require.NoError(t, err)
	require.EqualValues(t, 67890, cursor)
}
