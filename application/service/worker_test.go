package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/infrastructure/persistence"
	"github.com/stylo-app/stylo/internal/config"
	"github.com/stylo-app/stylo/internal/testdb"
)

func newTestWorker(t *testing.T, embedder *stubEmbedder) (*EmbedWorker, wardrobe.ItemStore, *EmbedQueue) {
	t.Helper()
	store := persistence.NewItemStore(testdb.New(t))
	queue := NewEmbedQueue(16, testLogger())
	cfg := config.NewEmbeddingConfig().
		WithBatchSize(2).
		WithBatchWait(10 * time.Millisecond)
	worker := NewEmbedWorker(cfg, queue, store, embedder, testLogger())
	return worker, store, queue
}

func saveItem(t *testing.T, store wardrobe.ItemStore, id, ownerID string, slot wardrobe.Slot, itemType string, embedded bool) {
	t.Helper()
	item := wardrobe.NewItem(id, ownerID, slot, itemType)
	if embedded {
		item = item.WithEmbedding([]float64{0.5, 0.5}, time.Now())
	}
	_, err := store.Save(context.Background(), item)
	require.NoError(t, err)
}

func TestEmbedWorkerProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("persists vectors for the batch", func(t *testing.T) {
		embedder := &stubEmbedder{fallback: []float64{1, 0}}
		worker, store, _ := newTestWorker(t, embedder)
		saveItem(t, store, "i1", "user-1", wardrobe.SlotTop, "white shirt", false)
		saveItem(t, store, "i2", "user-1", wardrobe.SlotBottom, "navy chinos", false)

		require.NoError(t, worker.ProcessBatch(ctx, []string{"i1", "i2"}))

		for _, id := range []string{"i1", "i2"} {
			item, err := store.Get(ctx, "user-1", id)
			require.NoError(t, err)
			assert.True(t, item.HasEmbedding())
		}
	})

	t.Run("skips ids whose items were deleted", func(t *testing.T) {
		embedder := &stubEmbedder{fallback: []float64{1, 0}}
		worker, store, _ := newTestWorker(t, embedder)
		saveItem(t, store, "i1", "user-1", wardrobe.SlotTop, "white shirt", false)

		require.NoError(t, worker.ProcessBatch(ctx, []string{"i1", "gone"}))

		item, err := store.Get(ctx, "user-1", "i1")
		require.NoError(t, err)
		assert.True(t, item.HasEmbedding())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		embedder := &stubEmbedder{fallback: []float64{1, 0}}
		worker, _, _ := newTestWorker(t, embedder)

		require.NoError(t, worker.ProcessBatch(ctx, nil))
		assert.Empty(t, embedder.batches)
	})

	t.Run("embedder failure surfaces", func(t *testing.T) {
		embedder := &stubEmbedder{err: errors.New("model offline")}
		worker, store, _ := newTestWorker(t, embedder)
		saveItem(t, store, "i1", "user-1", wardrobe.SlotTop, "white shirt", false)

		err := worker.ProcessBatch(ctx, []string{"i1"})
		require.Error(t, err)

		item, getErr := store.Get(ctx, "user-1", "i1")
		require.NoError(t, getErr)
		assert.False(t, item.HasEmbedding())
	})
}

func TestEmbedWorkerRefreshMissing(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds only items without vectors", func(t *testing.T) {
		embedder := &stubEmbedder{fallback: []float64{1, 0}}
		worker, store, _ := newTestWorker(t, embedder)
		saveItem(t, store, "i1", "user-1", wardrobe.SlotTop, "white shirt", false)
		saveItem(t, store, "i2", "user-1", wardrobe.SlotBottom, "navy chinos", false)
		saveItem(t, store, "i3", "user-1", wardrobe.SlotFootwear, "loafers", true)

		refreshed, err := worker.RefreshMissing(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 2, refreshed)
	})

	t.Run("second run refreshes zero", func(t *testing.T) {
		embedder := &stubEmbedder{fallback: []float64{1, 0}}
		worker, store, _ := newTestWorker(t, embedder)
		saveItem(t, store, "i1", "user-1", wardrobe.SlotTop, "white shirt", false)

		refreshed, err := worker.RefreshMissing(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 1, refreshed)

		refreshed, err = worker.RefreshMissing(ctx, "")
		require.NoError(t, err)
		assert.Zero(t, refreshed)
	})

	t.Run("owner scope leaves other catalogs alone", func(t *testing.T) {
		embedder := &stubEmbedder{fallback: []float64{1, 0}}
		worker, store, _ := newTestWorker(t, embedder)
		saveItem(t, store, "i1", "user-1", wardrobe.SlotTop, "white shirt", false)
		saveItem(t, store, "i2", "user-2", wardrobe.SlotTop, "black tee", false)

		refreshed, err := worker.RefreshMissing(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, refreshed)

		other, err := store.Get(ctx, "user-2", "i2")
		require.NoError(t, err)
		assert.False(t, other.HasEmbedding())
	})
}

func TestEmbedWorkerLifecycle(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float64{1, 0}}
	worker, store, queue := newTestWorker(t, embedder)
	saveItem(t, store, "i1", "user-1", wardrobe.SlotTop, "white shirt", false)

	worker.Start(context.Background())
	queue.Enqueue("i1")

	require.Eventually(t, func() bool {
		item, err := store.Get(context.Background(), "user-1", "i1")
		return err == nil && item.HasEmbedding()
	}, 2*time.Second, 10*time.Millisecond)

	worker.Stop()
}

func TestEmbedWorkerZeroBatchSize(t *testing.T) {
	embedder := &stubEmbedder{fallback: []float64{1, 0}}
	store := persistence.NewItemStore(testdb.New(t))
	queue := NewEmbedQueue(4, testLogger())

	// A zero-value config must not produce a zero batch size, which
	// would make the refresh sweep spin forever.
	worker := NewEmbedWorker(config.EmbeddingConfig{}, queue, store, embedder, testLogger())
	saveItem(t, store, "i1", "user-1", wardrobe.SlotTop, "white shirt", false)
	saveItem(t, store, "i2", "user-1", wardrobe.SlotBottom, "jeans", false)

	refreshed, err := worker.RefreshMissing(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)
}
