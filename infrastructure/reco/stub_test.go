package reco

import (
	"context"
	"io"
	"strings"

	"github.com/stylo-app/stylo/internal/config"
	"github.com/stylo-app/stylo/internal/log"
)

// stubEmbedder returns canned vectors by lowercased text, with an
// optional fallback for everything else. A nil fallback means unknown
// texts get a zero vector, which scores 0 against anything.
type stubEmbedder struct {
	dim      int
	vecs     map[string][]float64
	fallback []float64
	err      error
	batches  [][]string
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.batches = append(s.batches, texts)
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := s.vecs[strings.ToLower(text)]; ok {
			out[i] = v
		} else if s.fallback != nil {
			out[i] = s.fallback
		} else {
			out[i] = make([]float64, s.dim)
		}
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return s.dim }

func testLogger() *log.Logger {
	return log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "error")
}
