package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	dim   int
	calls [][]string
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.calls = append(c.calls, texts)
	out := make([][]float64, len(texts))
	for i := range texts {
		vec := make([]float64, c.dim)
		vec[0] = float64(len(texts[i]))
		out[i] = vec
	}
	return out, nil
}

func (c *countingEmbedder) Dimension() int { return c.dim }

func TestCachedEmbedder_SecondCallHitsCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{dim: 4}
	cached := NewCachedEmbedder(inner, NewMemoryCache(), "minilm", time.Minute)

	first, err := cached.Embed(ctx, []string{"business meeting"})
	require.NoError(t, err)

	second, err := cached.Embed(ctx, []string{"business meeting"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, inner.calls, 1, "second call should be served from cache")
}

func TestCachedEmbedder_PartialHitEmbedsOnlyMisses(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{dim: 4}
	cached := NewCachedEmbedder(inner, NewMemoryCache(), "minilm", time.Minute)

	_, err := cached.Embed(ctx, []string{"alpha"})
	require.NoError(t, err)

	vecs, err := cached.Embed(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"beta"}, inner.calls[1])
}

func TestCachedEmbedder_NilCachePassesThrough(t *testing.T) {
	inner := &countingEmbedder{dim: 4}
	cached := NewCachedEmbedder(inner, nil, "minilm", time.Minute)

	vecs, err := cached.Embed(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestCachedEmbedder_ErrorPropagates(t *testing.T) {
	inner := &countingEmbedder{dim: 4, err: errors.New("model gone")}
	cached := NewCachedEmbedder(inner, NewMemoryCache(), "minilm", time.Minute)

	_, err := cached.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestCachedEmbedder_EmptyInput(t *testing.T) {
	inner := &countingEmbedder{dim: 4}
	cached := NewCachedEmbedder(inner, NewMemoryCache(), "minilm", time.Minute)

	vecs, err := cached.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Empty(t, inner.calls)
}
