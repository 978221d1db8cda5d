package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stylo-app/stylo/domain/store"
	"github.com/stylo-app/stylo/domain/suggestion"
	"github.com/stylo-app/stylo/domain/wardrobe"
	"github.com/stylo-app/stylo/internal/config"
	"github.com/stylo-app/stylo/internal/log"
)

// EmbedWorker is the single background consumer of the embedding queue.
// It coalesces enqueued item ids into micro-batches, embeds their
// searchable text in one call, and persists all vectors of a batch in
// one transaction. It is the only writer of item embeddings at runtime.
type EmbedWorker struct {
	queue     *EmbedQueue
	items     wardrobe.ItemStore
	embedder  suggestion.Embedder
	logger    *log.Logger
	batchSize int
	batchWait time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewEmbedWorker creates a worker from config and dependencies.
func NewEmbedWorker(
	cfg config.EmbeddingConfig,
	queue *EmbedQueue,
	items wardrobe.ItemStore,
	embedder suggestion.Embedder,
	logger *log.Logger,
) *EmbedWorker {
	batchSize := cfg.BatchSize()
	if batchSize < 1 {
		batchSize = 1
	}
	return &EmbedWorker{
		queue:     queue,
		items:     items,
		embedder:  embedder,
		logger:    logger,
		batchSize: batchSize,
		batchWait: cfg.BatchWait(),
	}
}

// Start begins draining the queue in a background goroutine.
func (w *EmbedWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	w.logger.Info("embedding worker started",
		"batch_size", w.batchSize, "batch_wait", w.batchWait)
}

// Stop cancels the worker and waits for the in-flight batch to finish.
func (w *EmbedWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.logger.Info("embedding worker stopped")
}

func (w *EmbedWorker) run(ctx context.Context) {
	for {
		batch := w.queue.Drain(ctx, w.batchSize, w.batchWait)
		if ctx.Err() != nil {
			return
		}
		if len(batch) == 0 {
			continue
		}
		if err := w.ProcessBatch(ctx, batch); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("embedding batch failed", "count", len(batch), "error", err)
		}
	}
}

// ProcessBatch embeds the given item ids and persists the vectors in one
// transaction. Ids whose items have been deleted are skipped silently.
func (w *EmbedWorker) ProcessBatch(ctx context.Context, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	items, err := w.items.Find(ctx, store.WithIDIn(itemIDs))
	if err != nil {
		return fmt.Errorf("load batch items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.SearchableText()
	}

	vectors, err := w.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}

	embeddings := make(map[string][]float64, len(items))
	for i, item := range items {
		if i < len(vectors) && len(vectors[i]) > 0 {
			embeddings[item.ID()] = vectors[i]
		}
	}
	if len(embeddings) == 0 {
		return nil
	}

	if err := w.items.SaveEmbeddings(ctx, embeddings); err != nil {
		return fmt.Errorf("save embeddings: %w", err)
	}

	w.logger.Debug("embedding batch persisted", "count", len(embeddings))
	return nil
}

// RefreshMissing embeds every item without a stored vector. When ownerID
// is empty the whole catalog is swept. Returns the number of items
// refreshed. Running it twice in a row refreshes zero the second time.
func (w *EmbedWorker) RefreshMissing(ctx context.Context, ownerID string) (int, error) {
	options := []store.Option{wardrobe.WithEmbeddingMissing()}
	if ownerID != "" {
		options = append(options, wardrobe.WithOwner(ownerID))
	}

	items, err := w.items.Find(ctx, options...)
	if err != nil {
		return 0, fmt.Errorf("find unembedded items: %w", err)
	}

	refreshed := 0
	for start := 0; start < len(items); start += w.batchSize {
		end := start + w.batchSize
		if end > len(items) {
			end = len(items)
		}
		ids := make([]string, 0, end-start)
		for _, item := range items[start:end] {
			ids = append(ids, item.ID())
		}
		if err := w.ProcessBatch(ctx, ids); err != nil {
			return refreshed, err
		}
		refreshed += len(ids)
	}
	return refreshed, nil
}
