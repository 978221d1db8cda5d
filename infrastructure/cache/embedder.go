package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stylo-app/stylo/domain/suggestion"
)

// CachedEmbedder memoizes embeddings per text so hot queries and intent
// seeds are embedded once per TTL window instead of once per request.
// Cache failures degrade to a plain embed.
type CachedEmbedder struct {
	inner suggestion.Embedder
	cache Cache
	model string
	ttl   time.Duration
}

// NewCachedEmbedder wraps an embedder with a keyed cache. The model
// identifier namespaces keys so a model swap never serves stale vectors.
func NewCachedEmbedder(inner suggestion.Embedder, c Cache, model string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: c,
		model: model,
		ttl:   ttl,
	}
}

// Embed returns cached vectors where available and embeds the rest in
// one underlying call, preserving input order.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	if e.cache == nil {
		return e.inner.Embed(ctx, texts)
	}

	out := make([][]float64, len(texts))
	missing := make([]int, 0, len(texts))
	for i, text := range texts {
		if vec, ok := e.lookup(ctx, text); ok {
			out[i] = vec
		} else {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	pending := make([]string, len(missing))
	for i, idx := range missing {
		pending[i] = texts[idx]
	}

	vecs, err := e.inner.Embed(ctx, pending)
	if err != nil {
		return nil, err
	}

	for i, idx := range missing {
		if i >= len(vecs) {
			break
		}
		out[idx] = vecs[i]
		e.store(ctx, texts[idx], vecs[i])
	}
	return out, nil
}

// Dimension returns the wrapped embedder's vector width.
func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}

func (e *CachedEmbedder) lookup(ctx context.Context, text string) ([]float64, bool) {
	payload, ok, err := e.cache.Get(ctx, EmbeddingKey(e.model, text))
	if err != nil || !ok {
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(payload, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	// A width mismatch means the entry predates a model change.
	if dim := e.inner.Dimension(); dim > 0 && len(vec) != dim {
		return nil, false
	}
	return vec, true
}

func (e *CachedEmbedder) store(ctx context.Context, text string, vec []float64) {
	if len(vec) == 0 {
		return
	}
	payload, err := json.Marshal(vec)
	if err != nil {
		return
	}
	_ = e.cache.Set(ctx, EmbeddingKey(e.model, text), payload, e.ttl)
}

var _ suggestion.Embedder = (*CachedEmbedder)(nil)
