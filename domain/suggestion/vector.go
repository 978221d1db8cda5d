package suggestion

import (
	"errors"
	"math"
)

// ErrEmptyEmbedding indicates an embedder returned no vectors.
var ErrEmptyEmbedding = errors.New("embedder returned no vectors")

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// and zero vectors yield 0 rather than an error; callers treat that as
// "no signal".
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
