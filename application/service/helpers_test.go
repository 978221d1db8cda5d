package service

import (
	"context"
	"io"
	"strings"

	"github.com/stylo-app/stylo/internal/config"
	"github.com/stylo-app/stylo/internal/log"
)

// stubEmbedder returns canned vectors keyed by lowercased text. Unknown
// texts fall back to the fallback vector, or a zero vector of dim.
type stubEmbedder struct {
	dim      int
	vecs     map[string][]float64
	fallback []float64
	err      error
	batches  [][]string
}

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.batches = append(e.batches, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if vec, ok := e.vecs[strings.ToLower(text)]; ok {
			out[i] = vec
			continue
		}
		if e.fallback != nil {
			out[i] = e.fallback
			continue
		}
		out[i] = make([]float64, e.dim)
	}
	return out, nil
}

func (e *stubEmbedder) Dimension() int { return e.dim }

func testLogger() *log.Logger {
	return log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "error")
}

func ptr(s string) *string { return &s }
