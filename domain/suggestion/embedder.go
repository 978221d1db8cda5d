// Package suggestion contains the domain types for outfit suggestion:
// intents, query kinds, assembled outfits, and the embedding contract.
package suggestion

import "context"

// Embedder produces dense vectors for text. Implementations must return
// one vector per input, in order.
type Embedder interface {
	// Embed computes embeddings for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension returns the vector width this embedder produces.
	Dimension() int
}

// EmbedOne is a convenience wrapper for embedding a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float64, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return vecs[0], nil
}
