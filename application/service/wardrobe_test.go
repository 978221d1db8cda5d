package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/infrastructure/cache"
	"github.com/stylo-app/stylo/infrastructure/persistence"
	"github.com/stylo-app/stylo/internal/testdb"
)

func newTestWardrobe(t *testing.T) (*Wardrobe, wardrobe.ItemStore, *EmbedQueue, cache.Cache) {
	t.Helper()
	store := persistence.NewItemStore(testdb.New(t))
	queue := NewEmbedQueue(16, testLogger())
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })
	return NewWardrobe(store, queue, c, testLogger()), store, queue, c
}

func seedSuggestionEntry(t *testing.T, c cache.Cache, ownerID string) string {
	t.Helper()
	key := cache.SuggestionKey(ownerID, "dinner outfit")
	require.NoError(t, c.Set(context.Background(), key, []byte(`{}`), time.Minute))
	return key
}

func TestWardrobeAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("creates item and schedules embedding", func(t *testing.T) {
		svc, store, queue, c := newTestWardrobe(t)
		key := seedSuggestionEntry(t, c, "user-1")

		item, err := svc.AddItem(ctx, "user-1", ItemParams{
			Slot:        ptr("top"),
			Type:        ptr("white shirt"),
			Color:       ptr("white"),
			Description: ptr("crisp oxford"),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, item.ID())
		assert.Equal(t, wardrobe.SlotTop, item.Slot())

		stored, err := store.Get(ctx, "user-1", item.ID())
		require.NoError(t, err)
		assert.Equal(t, "white shirt", stored.Type())

		assert.Equal(t, 1, queue.Len())
		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "stale suggestions must be invalidated")
	})

	t.Run("rejects missing owner", func(t *testing.T) {
		svc, _, _, _ := newTestWardrobe(t)
		_, err := svc.AddItem(ctx, "", ItemParams{Slot: ptr("top"), Type: ptr("shirt")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects missing type", func(t *testing.T) {
		svc, _, _, _ := newTestWardrobe(t)
		_, err := svc.AddItem(ctx, "user-1", ItemParams{Slot: ptr("top"), Type: ptr("  ")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects unknown slot", func(t *testing.T) {
		svc, _, _, _ := newTestWardrobe(t)
		_, err := svc.AddItem(ctx, "user-1", ItemParams{Slot: ptr("hat rack"), Type: ptr("shirt")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestWardrobeUpdateItem(t *testing.T) {
	ctx := context.Background()

	addEmbedded := func(t *testing.T, svc *Wardrobe, store wardrobe.ItemStore, queue *EmbedQueue) wardrobe.Item {
		t.Helper()
		item, err := svc.AddItem(ctx, "user-1", ItemParams{Slot: ptr("top"), Type: ptr("white shirt")})
		require.NoError(t, err)
		_, err = store.Save(ctx, item.WithEmbedding([]float64{1, 0}, time.Now()))
		require.NoError(t, err)
		_ = queue.Drain(ctx, 16, 0)
		return item
	}

	t.Run("text change clears the embedding", func(t *testing.T) {
		svc, store, queue, _ := newTestWardrobe(t)
		item := addEmbedded(t, svc, store, queue)

		updated, err := svc.UpdateItem(ctx, "user-1", item.ID(), ItemParams{Color: ptr("blue")})
		require.NoError(t, err)
		assert.Equal(t, "blue", updated.Color())
		assert.False(t, updated.HasEmbedding())
		assert.Equal(t, 1, queue.Len(), "refresh scheduled")

		stored, err := store.Get(ctx, "user-1", item.ID())
		require.NoError(t, err)
		assert.False(t, stored.HasEmbedding())
	})

	t.Run("no-op update keeps the embedding", func(t *testing.T) {
		svc, store, queue, _ := newTestWardrobe(t)
		item := addEmbedded(t, svc, store, queue)

		updated, err := svc.UpdateItem(ctx, "user-1", item.ID(), ItemParams{Type: ptr("white shirt")})
		require.NoError(t, err)
		assert.True(t, updated.HasEmbedding())
		assert.Zero(t, queue.Len())
	})

	t.Run("rejects blank type", func(t *testing.T) {
		svc, store, queue, _ := newTestWardrobe(t)
		item := addEmbedded(t, svc, store, queue)

		_, err := svc.UpdateItem(ctx, "user-1", item.ID(), ItemParams{Type: ptr(" ")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown item surfaces not found", func(t *testing.T) {
		svc, _, _, _ := newTestWardrobe(t)
		_, err := svc.UpdateItem(ctx, "user-1", "missing", ItemParams{Color: ptr("red")})
		assert.Error(t, err)
	})
}

func TestWardrobeDeleteItem(t *testing.T) {
	ctx := context.Background()
	svc, store, _, c := newTestWardrobe(t)

	item, err := svc.AddItem(ctx, "user-1", ItemParams{Slot: ptr("top"), Type: ptr("white shirt")})
	require.NoError(t, err)
	key := seedSuggestionEntry(t, c, "user-1")

	require.NoError(t, svc.DeleteItem(ctx, "user-1", item.ID()))

	_, err = store.Get(ctx, "user-1", item.ID())
	assert.Error(t, err)
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWardrobeListItems(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestWardrobe(t)

	seed := []ItemParams{
		{Slot: ptr("top"), Type: ptr("white shirt"), Color: ptr("white")},
		{Slot: ptr("top"), Type: ptr("black tee"), Color: ptr("black")},
		{Slot: ptr("bottom"), Type: ptr("navy chinos"), Color: ptr("navy")},
		{Slot: ptr("footwear"), Type: ptr("white sneakers"), Color: ptr("white")},
	}
	for _, params := range seed {
		_, err := svc.AddItem(ctx, "user-1", params)
		require.NoError(t, err)
	}
	_, err := svc.AddItem(ctx, "user-2", ItemParams{Slot: ptr("top"), Type: ptr("red polo")})
	require.NoError(t, err)

	t.Run("returns only the owner's items", func(t *testing.T) {
		items, total, err := svc.ListItems(ctx, "user-1", ItemFilter{})
		require.NoError(t, err)
		assert.Len(t, items, 4)
		assert.EqualValues(t, 4, total)
	})

	t.Run("filters by slot", func(t *testing.T) {
		items, total, err := svc.ListItems(ctx, "user-1", ItemFilter{Slot: "top"})
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.EqualValues(t, 2, total)
	})

	t.Run("filters by color", func(t *testing.T) {
		_, total, err := svc.ListItems(ctx, "user-1", ItemFilter{Color: "white"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("free text search matches type", func(t *testing.T) {
		items, _, err := svc.ListItems(ctx, "user-1", ItemFilter{Query: "sneaker"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "white sneakers", items[0].Type())
	})

	t.Run("pagination caps results but not the total", func(t *testing.T) {
		items, total, err := svc.ListItems(ctx, "user-1", ItemFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.EqualValues(t, 4, total)
	})
}
