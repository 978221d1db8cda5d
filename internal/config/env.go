// Package config provides application configuration.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Field names map directly to environment variable names with no prefix.
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path (model files, default sqlite db).
	// Env: DATA_DIR
	// Default: ~/.stylo
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/stylo.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// AuthSecret is the HMAC secret for bearer token verification.
	// Env: AUTH_SECRET
	AuthSecret string `envconfig:"AUTH_SECRET"`

	// CORSOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ORIGINS
	CORSOrigins string `envconfig:"CORS_ORIGINS"`

	// RAGEnabled controls semantic candidate filtering. When false the
	// full owned catalog is passed to the selector.
	// Env: RAG_ENABLED (default: true)
	RAGEnabled bool `envconfig:"RAG_ENABLED" default:"true"`

	// EmbeddingModel is the sentence embedding model identifier.
	// Env: EMBEDDING_MODEL (default: all-MiniLM-L6-v2)
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL"`

	// EmbeddingBatchSize is the worker micro-batch size.
	// Env: EMBEDDING_BATCH_SIZE (default: 10)
	EmbeddingBatchSize int `envconfig:"EMBEDDING_BATCH_SIZE" default:"10"`

	// EmbeddingBatchTimeout is the worker batch wait in seconds.
	// Env: EMBEDDING_BATCH_TIMEOUT (default: 2)
	EmbeddingBatchTimeout float64 `envconfig:"EMBEDDING_BATCH_TIMEOUT" default:"2"`

	// EmbeddingQueueSize is the bounded refresh queue capacity.
	// Env: EMBEDDING_QUEUE_SIZE (default: 1024)
	EmbeddingQueueSize int `envconfig:"EMBEDDING_QUEUE_SIZE" default:"1024"`

	// EmbeddingEndpoint configures a remote OpenAI-compatible embedding
	// service. When unset the local ONNX model is used.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// GeminiAPIKey enables the generative outfit delegate when set.
	// Env: GEMINI_API_KEY
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	// GeminiModel is the generative model identifier.
	// Env: GEMINI_MODEL (default: gemini-2.5-flash)
	GeminiModel string `envconfig:"GEMINI_MODEL"`

	// RedisURL is the cache backend URL. When unset or unreachable an
	// in-process TTL cache is used instead.
	// Env: REDIS_URL
	RedisURL string `envconfig:"REDIS_URL"`

	// SuggestionCacheTTL is the suggestion entry lifetime in seconds.
	// Env: SUGGESTION_CACHE_TTL (default: 300)
	SuggestionCacheTTL float64 `envconfig:"SUGGESTION_CACHE_TTL" default:"300"`

	// EmbeddingCacheTTL is the cached embedding lifetime in seconds.
	// Env: EMBEDDING_CACHE_TTL (default: 86400)
	EmbeddingCacheTTL float64 `envconfig:"EMBEDDING_CACHE_TTL" default:"86400"`

	// SuggestRateLimit is the per-IP suggestion budget per minute.
	// Env: SUGGEST_RATE_LIMIT (default: 30)
	SuggestRateLimit int `envconfig:"SUGGEST_RATE_LIMIT" default:"30"`

	// MutateRateLimit is the per-IP catalog mutation budget per minute.
	// Env: MUTATE_RATE_LIMIT (default: 60)
	MutateRateLimit int `envconfig:"MUTATE_RATE_LIMIT" default:"60"`
}

// EndpointEnv holds environment configuration for a remote embedding endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: EMBEDDING_ENDPOINT_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g., text-embedding-3-small).
	// Env: EMBEDDING_ENDPOINT_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: EMBEDDING_ENDPOINT_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: EMBEDDING_ENDPOINT_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: EMBEDDING_ENDPOINT_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: EMBEDDING_ENDPOINT_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: EMBEDDING_ENDPOINT_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "STYLO" would require STYLO_DB_URL instead of DB_URL.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = cfg.Apply(WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = cfg.Apply(WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = cfg.Apply(WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = cfg.Apply(WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.AuthSecret != "" {
		cfg = cfg.Apply(WithAuthSecret(e.AuthSecret))
	}
	if e.CORSOrigins != "" {
		cfg = cfg.Apply(WithCORSOrigins(ParseOrigins(e.CORSOrigins)))
	}

	embedding := NewEmbeddingConfig().
		WithEmbeddingModel(e.EmbeddingModel).
		WithBatchSize(e.EmbeddingBatchSize).
		WithBatchWait(seconds(e.EmbeddingBatchTimeout)).
		WithQueueSize(e.EmbeddingQueueSize)
	if e.EmbeddingEndpoint.IsConfigured() {
		embedding = embedding.WithEndpoint(e.EmbeddingEndpoint.ToEndpoint())
	}
	cfg = cfg.Apply(WithEmbeddingConfig(embedding))

	gemini := NewGeminiConfig().
		WithGeminiAPIKey(e.GeminiAPIKey).
		WithGeminiModel(e.GeminiModel)
	cfg = cfg.Apply(WithGeminiConfig(gemini))

	cache := NewCacheConfig().
		WithRedisURL(e.RedisURL).
		WithSuggestionTTL(seconds(e.SuggestionCacheTTL)).
		WithEmbeddingTTL(seconds(e.EmbeddingCacheTTL))
	cfg = cfg.Apply(WithCacheConfig(cache))

	cfg = cfg.Apply(WithRetrievalConfig(NewRetrievalConfig().WithRAGEnabled(e.RAGEnabled)))

	rate := NewRateLimitConfig().
		WithSuggestPerMinute(e.SuggestRateLimit).
		WithMutatePerMinute(e.MutateRateLimit)
	cfg = cfg.Apply(WithRateLimitConfig(rate))

	return cfg
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithTimeout(seconds(e.Timeout)),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(seconds(e.InitialDelay)),
		WithBackoff(e.BackoffFactor),
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	return NewEndpointWithOptions(opts...)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
