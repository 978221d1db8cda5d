// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                 = "0.0.0.0"
	DefaultPort                 = 8080
	DefaultLogLevel             = "INFO"
	DefaultEmbeddingModel       = "all-MiniLM-L6-v2"
	DefaultEmbeddingBatchSize   = 10
	DefaultEmbeddingBatchWait   = 2 * time.Second
	DefaultEmbeddingQueueSize   = 1024
	DefaultEndpointTimeout      = 60 * time.Second
	DefaultEndpointMaxRetries   = 5
	DefaultEndpointInitialDelay = 2 * time.Second
	DefaultEndpointBackoff      = 2.0
	DefaultGeminiModel          = "gemini-2.5-flash"
	DefaultGeminiTemperature    = 0.7
	DefaultGeminiMaxTokens      = 2048
	DefaultGeminiConnectTimeout = 5 * time.Second
	DefaultGeminiReadTimeout    = 30 * time.Second
	DefaultGeminiMaxRetries     = 3
	DefaultGeminiRetryBase      = 2 * time.Second
	DefaultGeminiTokenBudget    = 100_000
	DefaultSuggestionTTL        = 5 * time.Minute
	DefaultEmbeddingTTL         = 24 * time.Hour
	DefaultSuggestRatePerMin    = 30
	DefaultMutateRatePerMin     = 60
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures a remote OpenAI-compatible embedding service.
// When unset, embeddings are computed by the local ONNX model instead.
type Endpoint struct {
	baseURL      string
	model        string
	apiKey       string
	timeout      time.Duration
	maxRetries   int
	initialDelay time.Duration
	backoff      float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:      DefaultEndpointTimeout,
		maxRetries:   DefaultEndpointMaxRetries,
		initialDelay: DefaultEndpointInitialDelay,
		backoff:      DefaultEndpointBackoff,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// Backoff returns the retry backoff multiplier.
func (e Endpoint) Backoff() float64 { return e.backoff }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool { return e.model != "" }

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoff sets the retry backoff multiplier.
func WithBackoff(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoff = f }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// EmbeddingConfig configures the embedding pipeline: which model produces
// vectors and how the background worker batches refresh jobs.
type EmbeddingConfig struct {
	model     string
	batchSize int
	batchWait time.Duration
	queueSize int
	endpoint  *Endpoint
}

// NewEmbeddingConfig creates an EmbeddingConfig with defaults.
func NewEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		model:     DefaultEmbeddingModel,
		batchSize: DefaultEmbeddingBatchSize,
		batchWait: DefaultEmbeddingBatchWait,
		queueSize: DefaultEmbeddingQueueSize,
	}
}

// Model returns the embedding model identifier.
func (c EmbeddingConfig) Model() string { return c.model }

// BatchSize returns the maximum items per worker micro-batch.
func (c EmbeddingConfig) BatchSize() int { return c.batchSize }

// BatchWait returns the maximum time the worker waits to fill a batch.
func (c EmbeddingConfig) BatchWait() time.Duration { return c.batchWait }

// QueueSize returns the bounded refresh queue capacity.
func (c EmbeddingConfig) QueueSize() int { return c.queueSize }

// Endpoint returns the remote endpoint config, or nil for local inference.
func (c EmbeddingConfig) Endpoint() *Endpoint { return c.endpoint }

// WithEmbeddingModel returns a new config with the specified model.
func (c EmbeddingConfig) WithEmbeddingModel(model string) EmbeddingConfig {
	if model != "" {
		c.model = model
	}
	return c
}

// WithBatchSize returns a new config with the specified batch size.
func (c EmbeddingConfig) WithBatchSize(n int) EmbeddingConfig {
	if n > 0 {
		c.batchSize = n
	}
	return c
}

// WithBatchWait returns a new config with the specified batch wait.
func (c EmbeddingConfig) WithBatchWait(d time.Duration) EmbeddingConfig {
	if d > 0 {
		c.batchWait = d
	}
	return c
}

// WithQueueSize returns a new config with the specified queue capacity.
func (c EmbeddingConfig) WithQueueSize(n int) EmbeddingConfig {
	if n > 0 {
		c.queueSize = n
	}
	return c
}

// WithEndpoint returns a new config with a remote embedding endpoint.
func (c EmbeddingConfig) WithEndpoint(e Endpoint) EmbeddingConfig {
	c.endpoint = &e
	return c
}

// GeminiConfig configures the generative outfit delegate. When the API key
// is empty the delegate is disabled and the rule engine always runs.
type GeminiConfig struct {
	apiKey         string
	model          string
	temperature    float64
	maxTokens      int
	connectTimeout time.Duration
	readTimeout    time.Duration
	maxRetries     int
	retryBase      time.Duration
	tokenBudget    int
}

// NewGeminiConfig creates a GeminiConfig with defaults.
func NewGeminiConfig() GeminiConfig {
	return GeminiConfig{
		model:          DefaultGeminiModel,
		temperature:    DefaultGeminiTemperature,
		maxTokens:      DefaultGeminiMaxTokens,
		connectTimeout: DefaultGeminiConnectTimeout,
		readTimeout:    DefaultGeminiReadTimeout,
		maxRetries:     DefaultGeminiMaxRetries,
		retryBase:      DefaultGeminiRetryBase,
		tokenBudget:    DefaultGeminiTokenBudget,
	}
}

// APIKey returns the Gemini API key.
func (c GeminiConfig) APIKey() string { return c.apiKey }

// Model returns the generative model identifier.
func (c GeminiConfig) Model() string { return c.model }

// Temperature returns the sampling temperature.
func (c GeminiConfig) Temperature() float64 { return c.temperature }

// MaxTokens returns the output token cap.
func (c GeminiConfig) MaxTokens() int { return c.maxTokens }

// ConnectTimeout returns the connection timeout.
func (c GeminiConfig) ConnectTimeout() time.Duration { return c.connectTimeout }

// ReadTimeout returns the response read timeout.
func (c GeminiConfig) ReadTimeout() time.Duration { return c.readTimeout }

// MaxRetries returns the retry cap for rate-limited calls.
func (c GeminiConfig) MaxRetries() int { return c.maxRetries }

// RetryBase returns the base delay for retry backoff.
func (c GeminiConfig) RetryBase() time.Duration { return c.retryBase }

// TokenBudget returns the approximate input token budget for prompts.
func (c GeminiConfig) TokenBudget() int { return c.tokenBudget }

// IsConfigured returns true when an API key is present.
func (c GeminiConfig) IsConfigured() bool { return c.apiKey != "" }

// WithGeminiAPIKey returns a new config with the specified API key.
func (c GeminiConfig) WithGeminiAPIKey(key string) GeminiConfig {
	c.apiKey = key
	return c
}

// WithGeminiModel returns a new config with the specified model.
func (c GeminiConfig) WithGeminiModel(model string) GeminiConfig {
	if model != "" {
		c.model = model
	}
	return c
}

// WithTemperature returns a new config with the specified temperature.
func (c GeminiConfig) WithTemperature(t float64) GeminiConfig {
	c.temperature = t
	return c
}

// CacheConfig configures the suggestion and embedding caches.
type CacheConfig struct {
	redisURL      string
	suggestionTTL time.Duration
	embeddingTTL  time.Duration
}

// NewCacheConfig creates a CacheConfig with defaults.
func NewCacheConfig() CacheConfig {
	return CacheConfig{
		suggestionTTL: DefaultSuggestionTTL,
		embeddingTTL:  DefaultEmbeddingTTL,
	}
}

// RedisURL returns the redis connection URL, empty for in-process caching.
func (c CacheConfig) RedisURL() string { return c.redisURL }

// SuggestionTTL returns the suggestion entry lifetime.
func (c CacheConfig) SuggestionTTL() time.Duration { return c.suggestionTTL }

// EmbeddingTTL returns the cached embedding lifetime.
func (c CacheConfig) EmbeddingTTL() time.Duration { return c.embeddingTTL }

// WithRedisURL returns a new config with the specified redis URL.
func (c CacheConfig) WithRedisURL(url string) CacheConfig {
	c.redisURL = url
	return c
}

// WithSuggestionTTL returns a new config with the specified TTL.
func (c CacheConfig) WithSuggestionTTL(d time.Duration) CacheConfig {
	if d > 0 {
		c.suggestionTTL = d
	}
	return c
}

// WithEmbeddingTTL returns a new config with the specified TTL.
func (c CacheConfig) WithEmbeddingTTL(d time.Duration) CacheConfig {
	if d > 0 {
		c.embeddingTTL = d
	}
	return c
}

// RetrievalConfig configures the semantic retriever.
type RetrievalConfig struct {
	ragEnabled  bool
	intentBoost bool
}

// NewRetrievalConfig creates a RetrievalConfig with defaults.
func NewRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{ragEnabled: true, intentBoost: true}
}

// RAGEnabled reports whether semantic candidate filtering is active.
// When false the full owned catalog is always used.
func (c RetrievalConfig) RAGEnabled() bool { return c.ragEnabled }

// IntentBoost reports whether retrieval scores blend in intent similarity.
func (c RetrievalConfig) IntentBoost() bool { return c.intentBoost }

// WithRAGEnabled returns a new config with the specified state.
func (c RetrievalConfig) WithRAGEnabled(enabled bool) RetrievalConfig {
	c.ragEnabled = enabled
	return c
}

// WithIntentBoost returns a new config with the specified state.
func (c RetrievalConfig) WithIntentBoost(enabled bool) RetrievalConfig {
	c.intentBoost = enabled
	return c
}

// RateLimitConfig configures per-IP request budgets.
type RateLimitConfig struct {
	suggestPerMinute int
	mutatePerMinute  int
}

// NewRateLimitConfig creates a RateLimitConfig with defaults.
func NewRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		suggestPerMinute: DefaultSuggestRatePerMin,
		mutatePerMinute:  DefaultMutateRatePerMin,
	}
}

// SuggestPerMinute returns the suggestion endpoint budget.
func (c RateLimitConfig) SuggestPerMinute() int { return c.suggestPerMinute }

// MutatePerMinute returns the catalog mutation budget.
func (c RateLimitConfig) MutatePerMinute() int { return c.mutatePerMinute }

// WithSuggestPerMinute returns a new config with the specified budget.
func (c RateLimitConfig) WithSuggestPerMinute(n int) RateLimitConfig {
	if n > 0 {
		c.suggestPerMinute = n
	}
	return c
}

// WithMutatePerMinute returns a new config with the specified budget.
func (c RateLimitConfig) WithMutatePerMinute(n int) RateLimitConfig {
	if n > 0 {
		c.mutatePerMinute = n
	}
	return c
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host        string
	port        int
	dataDir     string
	dbURL       string
	logLevel    string
	logFormat   LogFormat
	authSecret  string
	corsOrigins []string
	embedding   EmbeddingConfig
	gemini      GeminiConfig
	cache       CacheConfig
	retrieval   RetrievalConfig
	rateLimit   RateLimitConfig
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stylo"
	}
	return filepath.Join(home, ".stylo")
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:      DefaultHost,
		port:      DefaultPort,
		dataDir:   dataDir,
		dbURL:     "sqlite:///" + filepath.Join(dataDir, "stylo.db"),
		logLevel:  DefaultLogLevel,
		logFormat: LogFormatPretty,
		embedding: NewEmbeddingConfig(),
		gemini:    NewGeminiConfig(),
		cache:     NewCacheConfig(),
		retrieval: NewRetrievalConfig(),
		rateLimit: NewRateLimitConfig(),
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path. Model files live under it.
func (c AppConfig) DataDir() string { return c.dataDir }

// ModelDir returns the directory holding local embedding model files.
func (c AppConfig) ModelDir() string {
	return filepath.Join(c.dataDir, "models")
}

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// AuthSecret returns the HMAC secret used to verify bearer tokens.
func (c AppConfig) AuthSecret() string { return c.authSecret }

// CORSOrigins returns the allowed CORS origins.
func (c AppConfig) CORSOrigins() []string {
	origins := make([]string, len(c.corsOrigins))
	copy(origins, c.corsOrigins)
	return origins
}

// Embedding returns the embedding config.
func (c AppConfig) Embedding() EmbeddingConfig { return c.embedding }

// Gemini returns the generative delegate config.
func (c AppConfig) Gemini() GeminiConfig { return c.gemini }

// Cache returns the cache config.
func (c AppConfig) Cache() CacheConfig { return c.cache }

// Retrieval returns the retriever config.
func (c AppConfig) Retrieval() RetrievalConfig { return c.retrieval }

// RateLimit returns the rate limit config.
func (c AppConfig) RateLimit() RateLimitConfig { return c.rateLimit }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		if c.dbURL == "" || strings.Contains(c.dbURL, "stylo.db") {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "stylo.db")
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAuthSecret sets the bearer token secret.
func WithAuthSecret(secret string) AppConfigOption {
	return func(c *AppConfig) { c.authSecret = secret }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsOrigins = make([]string, len(origins))
		copy(c.corsOrigins, origins)
	}
}

// WithEmbeddingConfig sets the embedding config.
func WithEmbeddingConfig(e EmbeddingConfig) AppConfigOption {
	return func(c *AppConfig) { c.embedding = e }
}

// WithGeminiConfig sets the generative delegate config.
func WithGeminiConfig(g GeminiConfig) AppConfigOption {
	return func(c *AppConfig) { c.gemini = g }
}

// WithCacheConfig sets the cache config.
func WithCacheConfig(cc CacheConfig) AppConfigOption {
	return func(c *AppConfig) { c.cache = cc }
}

// WithRetrievalConfig sets the retriever config.
func WithRetrievalConfig(r RetrievalConfig) AppConfigOption {
	return func(c *AppConfig) { c.retrieval = r }
}

// WithRateLimitConfig sets the rate limit config.
func WithRateLimitConfig(r RateLimitConfig) AppConfigOption {
	return func(c *AppConfig) { c.rateLimit = r }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Secrets are masked or reported as presence flags.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("embedding_model", c.embedding.Model()),
		slog.Int("embedding_batch_size", c.embedding.BatchSize()),
		slog.Duration("embedding_batch_wait", c.embedding.BatchWait()),
		slog.Bool("rag_enabled", c.retrieval.RAGEnabled()),
		slog.Bool("gemini_configured", c.gemini.IsConfigured()),
		slog.Bool("redis_configured", c.cache.RedisURL() != ""),
		slog.Bool("auth_configured", c.authSecret != ""),
		slog.Int("cors_origins", len(c.corsOrigins)),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// ParseOrigins parses a comma-separated string of CORS origins.
func ParseOrigins(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
