package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/stylo-app/stylo/internal/config"
)

// GeminiProvider generates outfit suggestions through the Gemini API.
// Responses are requested as JSON; parsing and validation happen in the
// caller, which also decides whether to fall back to the rule engine.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	maxRetries  int
	retryBase   time.Duration
}

// NewGeminiProvider creates a Gemini provider from configuration.
// Returns an error when no API key is configured.
func NewGeminiProvider(ctx context.Context, cfg config.GeminiConfig) (*GeminiProvider, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("gemini: %w", ErrUnsupportedOperation)
	}

	httpClient := &http.Client{
		Timeout: cfg.ReadTimeout(),
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout(),
			}).DialContext,
		},
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey(),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:      client,
		model:       cfg.Model(),
		temperature: float32(cfg.Temperature()),
		maxTokens:   int32(cfg.MaxTokens()),
		maxRetries:  cfg.MaxRetries(),
		retryBase:   cfg.RetryBase(),
	}, nil
}

// Generate sends the prompt and returns the raw response text. Rate
// limited requests are retried with exponential backoff; all other
// failures surface immediately so the caller can fall back quickly.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(p.temperature),
		MaxOutputTokens:  p.maxTokens,
		ResponseMIMEType: "application/json",
	}

	delay := p.retryBase
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), genConfig)
		if err == nil {
			text := resp.Text()
			if text == "" {
				return "", NewProviderError("generate", 0, "empty response from model", nil)
			}
			return text, nil
		}

		lastErr = err
		if !isRateLimited(err) {
			return "", p.wrapError(err)
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}

	return "", p.wrapError(fmt.Errorf("max retries exceeded: %w", lastErr))
}

// Close is a no-op; the genai client holds no pooled resources beyond
// its HTTP client.
func (p *GeminiProvider) Close() error {
	return nil
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	return false
}

func (p *GeminiProvider) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError("generate", apiErr.Code, apiErr.Message, err)
	}
	return NewProviderError("generate", 0, err.Error(), err)
}
