package service

import (
	"context"
	"sync"
	"time"

	"github.com/stylo-app/stylo/internal/log"
)

// EmbedQueue is the bounded channel feeding the embedding worker.
// Enqueue never blocks: duplicate ids are coalesced and overflow is
// dropped with a warning, since the retriever recomputes missing
// vectors on the fly anyway.
type EmbedQueue struct {
	ch     chan string
	logger *log.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewEmbedQueue creates a queue with the given capacity.
func NewEmbedQueue(capacity int, logger *log.Logger) *EmbedQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &EmbedQueue{
		ch:      make(chan string, capacity),
		logger:  logger,
		pending: make(map[string]struct{}, capacity),
	}
}

// Enqueue schedules an item for embedding refresh. Safe for concurrent
// use from request handlers.
func (q *EmbedQueue) Enqueue(itemID string) {
	if itemID == "" {
		return
	}

	q.mu.Lock()
	if _, ok := q.pending[itemID]; ok {
		q.mu.Unlock()
		return
	}
	q.pending[itemID] = struct{}{}
	q.mu.Unlock()

	select {
	case q.ch <- itemID:
	default:
		q.forget(itemID)
		q.logger.Warn("embedding queue full, dropping refresh", "item_id", itemID)
	}
}

// Drain blocks until at least one id is available or the context ends,
// then keeps collecting until max ids are gathered or the wait window
// elapses. Returns nil when the context is done before any id arrives.
func (q *EmbedQueue) Drain(ctx context.Context, max int, wait time.Duration) []string {
	if max <= 0 {
		max = 1
	}

	var batch []string
	select {
	case <-ctx.Done():
		return nil
	case id := <-q.ch:
		q.forget(id)
		batch = append(batch, id)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for len(batch) < max {
		select {
		case <-ctx.Done():
			return batch
		case <-timer.C:
			return batch
		case id := <-q.ch:
			q.forget(id)
			batch = append(batch, id)
		}
	}
	return batch
}

// Len returns the number of ids waiting in the queue.
func (q *EmbedQueue) Len() int {
	return len(q.ch)
}

func (q *EmbedQueue) forget(itemID string) {
	q.mu.Lock()
	delete(q.pending, itemID)
	q.mu.Unlock()
}
