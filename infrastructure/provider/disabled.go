package provider

import (
	"context"
	"errors"
)

// ErrEmbeddingUnavailable is returned by DisabledEmbedding. Callers in
// the retrieval pipeline treat it as a degradation signal, not a fault.
var ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

// DisabledEmbedding stands in when no embedding model could be loaded
// and no remote endpoint is configured. Every Embed call fails, which
// downgrades the pipeline to rule-only behavior while CRUD and the
// simple fallback keep working.
type DisabledEmbedding struct{}

// NewDisabledEmbedding creates a DisabledEmbedding.
func NewDisabledEmbedding() *DisabledEmbedding {
	return &DisabledEmbedding{}
}

// Embed always fails with ErrEmbeddingUnavailable.
func (d *DisabledEmbedding) Embed(context.Context, EmbeddingRequest) (EmbeddingResponse, error) {
	return EmbeddingResponse{}, ErrEmbeddingUnavailable
}

// Capacity returns 0; there is no usable batch size.
func (d *DisabledEmbedding) Capacity() int { return 0 }

// Dimension returns 0; no vectors are produced.
func (d *DisabledEmbedding) Dimension() int { return 0 }

// Close is a no-op.
func (d *DisabledEmbedding) Close() error { return nil }

var _ Embedder = (*DisabledEmbedding)(nil)
