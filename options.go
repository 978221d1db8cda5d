package stylo

import (
	"github.com/stylo-app/stylo/infrastructure/provider"
	"github.com/stylo-app/stylo/internal/config"
	"github.com/stylo-app/stylo/internal/log"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	dbURL             string
	dataDir           string
	modelDir          string
	embeddingProvider provider.Embedder
	embedding         config.EmbeddingConfig
	gemini            config.GeminiConfig
	cacheCfg          config.CacheConfig
	retrieval         config.RetrievalConfig
	logger            *log.Logger
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:   config.DefaultDataDir(),
		embedding: config.NewEmbeddingConfig(),
		gemini:    config.NewGeminiConfig(),
		cacheCfg:  config.NewCacheConfig(),
		retrieval: config.NewRetrievalConfig(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.dbURL = "sqlite:///" + path
	}
}

// WithPostgres configures PostgreSQL via a connection URL.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.dbURL = dsn
	}
}

// WithDBURL sets the database URL directly (sqlite:/// or postgresql://).
func WithDBURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = url
	}
}

// WithDataDir sets the data directory for the default database and the
// local model files.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithModelDir overrides where the local embedding model is looked up.
func WithModelDir(dir string) Option {
	return func(c *clientConfig) {
		c.modelDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithEmbeddingProvider injects an embedding backend, bypassing the
// local-model and remote-endpoint discovery.
func WithEmbeddingProvider(p provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = p
	}
}

// WithEmbeddingConfig sets the embedding model and worker batching knobs.
func WithEmbeddingConfig(cfg config.EmbeddingConfig) Option {
	return func(c *clientConfig) {
		c.embedding = cfg
	}
}

// WithGeminiConfig enables the generative outfit delegate.
func WithGeminiConfig(cfg config.GeminiConfig) Option {
	return func(c *clientConfig) {
		c.gemini = cfg
	}
}

// WithCacheConfig sets the cache backend URL and TTLs.
func WithCacheConfig(cfg config.CacheConfig) Option {
	return func(c *clientConfig) {
		c.cacheCfg = cfg
	}
}

// WithRetrievalConfig sets the RAG and intent-boost switches.
func WithRetrievalConfig(cfg config.RetrievalConfig) Option {
	return func(c *clientConfig) {
		c.retrieval = cfg
	}
}
