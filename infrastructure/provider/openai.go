package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/stylo-app/stylo/internal/config"
)

const (
	openAIBatchMax         = 100
	defaultEmbeddingDim    = 1536
	defaultEmbeddingModel  = "text-embedding-3-small"
	defaultOpenAIRetries   = 5
	defaultOpenAIDelay     = 2 * time.Second
	defaultOpenAIBackoff   = 2.0
	defaultEndpointTimeout = 60 * time.Second
)

// errEmbeddingCountMismatch indicates the API returned fewer embedding
// vectors than requested. This is retryable because transient upstream
// issues can produce partial responses behind a 200 status.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// OpenAIEmbedding generates embeddings through an OpenAI-compatible API.
// Used when local inference is unavailable or a remote endpoint is
// configured explicitly.
type OpenAIEmbedding struct {
	client        *openai.Client
	model         string
	dimension     int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewOpenAIEmbedding creates an embedder from an endpoint configuration.
func NewOpenAIEmbedding(endpoint config.Endpoint) *OpenAIEmbedding {
	clientConfig := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		clientConfig.BaseURL = endpoint.BaseURL()
	}

	timeout := endpoint.Timeout()
	if timeout <= 0 {
		timeout = defaultEndpointTimeout
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	model := endpoint.Model()
	if model == "" {
		model = defaultEmbeddingModel
	}

	maxRetries := endpoint.MaxRetries()
	if maxRetries <= 0 {
		maxRetries = defaultOpenAIRetries
	}

	initialDelay := endpoint.InitialDelay()
	if initialDelay <= 0 {
		initialDelay = defaultOpenAIDelay
	}

	backoff := endpoint.Backoff()
	if backoff <= 0 {
		backoff = defaultOpenAIBackoff
	}

	return &OpenAIEmbedding{
		client:        openai.NewClientWithConfig(clientConfig),
		model:         model,
		dimension:     defaultEmbeddingDim,
		maxRetries:    maxRetries,
		initialDelay:  initialDelay,
		backoffFactor: backoff,
	}
}

// Capacity returns the maximum number of texts per Embed call.
func (p *OpenAIEmbedding) Capacity() int { return openAIBatchMax }

// Dimension returns the vector width. The value is refined after the
// first successful call; until then a conservative default is reported.
func (p *OpenAIEmbedding) Dimension() int { return p.dimension }

// Embed generates embeddings for the given texts in a single API call.
func (p *OpenAIEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0, 0)), nil
	}

	openaiReq := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	var err error

	err = p.withRetry(ctx, func() error {
		resp, err = p.client.CreateEmbeddings(ctx, openaiReq)
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		return EmbeddingResponse{}, p.wrapError("embedding", err)
	}

	embeddings := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			embeddings[i][j] = float64(v)
		}
	}

	if len(embeddings) > 0 && len(embeddings[0]) > 0 {
		p.dimension = len(embeddings[0])
	}

	usage := NewUsage(resp.Usage.PromptTokens, 0, resp.Usage.TotalTokens)
	return NewEmbeddingResponse(embeddings, usage), nil
}

// Close is a no-op for the OpenAI embedder.
func (p *OpenAIEmbedding) Close() error {
	return nil
}

// withRetry executes the function with exponential backoff retry.
func (p *OpenAIEmbedding) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable determines if an error should be retried.
func isRetryable(err error) bool {
	// Partial embedding responses are retryable. Upstream providers can
	// return 200 with missing data under transient load.
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Network errors are retryable.
		return true
	}

	return false
}

// wrapError wraps an OpenAI error into a ProviderError.
func (p *OpenAIEmbedding) wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(operation, 0, err.Error(), err)
}

var _ Embedder = (*OpenAIEmbedding)(nil)
