package provider

import (
	"context"
	"fmt"

	"github.com/stylo-app/stylo/domain/suggestion"
)

// DomainEmbedder adapts a provider Embedder to the domain contract,
// splitting inputs into capacity-sized batches.
type DomainEmbedder struct {
	inner Embedder
}

// NewDomainEmbedder wraps a provider embedder for domain consumers.
func NewDomainEmbedder(inner Embedder) *DomainEmbedder {
	return &DomainEmbedder{inner: inner}
}

// Embed computes embeddings for the given texts, batching as needed.
func (d *DomainEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	capacity := d.inner.Capacity()
	if capacity <= 0 {
		capacity = len(texts)
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += capacity {
		end := start + capacity
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := d.inner.Embed(ctx, NewEmbeddingRequest(texts[start:end]))
		if err != nil {
			return nil, fmt.Errorf("embed batch: %w", err)
		}

		vecs := resp.Embeddings()
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embed batch: got %d vectors for %d texts", len(vecs), end-start)
		}
		out = append(out, vecs...)
	}

	return out, nil
}

// Dimension returns the vector width of the underlying embedder.
func (d *DomainEmbedder) Dimension() int {
	return d.inner.Dimension()
}

var _ suggestion.Embedder = (*DomainEmbedder)(nil)
