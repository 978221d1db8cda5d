// Package stylo provides the wardrobe suggestion backend: a per-user
// clothing catalog with asynchronously maintained item embeddings, and
// a suggestion pipeline that retrieves query-relevant candidates,
// classifies intent, and assembles ranked outfits with rationales.
//
// Basic usage:
//
//	client, err := stylo.New(
//	    stylo.WithSQLite(".stylo/stylo.db"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	item, err := client.Wardrobe.AddItem(ctx, ownerID, service.ItemParams{
//	    Slot: ptr("top"), Type: ptr("Dress Shirt"), Color: ptr("white"),
//	})
//
//	resp, err := client.Suggestions.Suggest(ctx, ownerID, "business meeting", 3)
//	for _, outfit := range resp.Outfits {
//	    fmt.Println(outfit.Rationale)
//	}
package stylo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/stylo-app/stylo/application/service"
	"github.com/stylo-app/stylo/domain/suggestion"
	"github.com/stylo-app/stylo/infrastructure/cache"
	"github.com/stylo-app/stylo/infrastructure/persistence"
	"github.com/stylo-app/stylo/infrastructure/provider"
	"github.com/stylo-app/stylo/infrastructure/reco"
	"github.com/stylo-app/stylo/internal/config"
	"github.com/stylo-app/stylo/internal/database"
	"github.com/stylo-app/stylo/internal/log"
)

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = service.ErrClientClosed

// Client is the main entry point for the stylo library. The embedding
// worker starts automatically on creation.
//
// Access resources via struct fields:
//
//	client.Wardrobe.ListItems(ctx, ownerID, filter)
//	client.Suggestions.Suggest(ctx, ownerID, "hiking in cool weather", 3)
//	client.Embeddings.RefreshMissing(ctx, "")
type Client struct {
	// Public resource fields (direct service access)
	Wardrobe    *service.Wardrobe
	Outfits     *service.Outfits
	Suggestions *service.Suggestions
	Embeddings  *service.EmbedWorker

	db       database.Database
	cache    cache.Cache
	queue    *service.EmbedQueue
	embedder suggestion.Embedder
	closers  []io.Closer

	logger  *log.Logger
	dataDir string
	closed  atomic.Bool
	ready   atomic.Bool
}

// New creates a new Client with the given options. The embedding worker
// is started automatically; readiness flips once the model warmup and a
// database ping have completed.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.NewLogger(config.NewAppConfig())
	}

	dataDir := cfg.dataDir
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbURL := cfg.dbURL
	if dbURL == "" {
		dbURL = "sqlite:///" + filepath.Join(dataDir, "stylo.db")
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}
	if err := persistence.ValidateSchema(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	itemStore := persistence.NewItemStore(db)
	outfitStore := persistence.NewOutfitStore(db)

	client := &Client{
		db:      db,
		logger:  logger,
		dataDir: dataDir,
	}

	client.cache = buildCache(ctx, cfg, logger)
	client.closers = append(client.closers, client.cache)

	embProvider := buildEmbeddingProvider(cfg, dataDir, logger)
	client.closers = append(client.closers, embProvider)

	var embedder suggestion.Embedder = provider.NewDomainEmbedder(embProvider)
	embedder = cache.NewCachedEmbedder(embedder, client.cache, cfg.embedding.Model(), cfg.cacheCfg.EmbeddingTTL())
	client.embedder = embedder

	client.queue = service.NewEmbedQueue(cfg.embedding.QueueSize(), logger)
	worker := service.NewEmbedWorker(cfg.embedding, client.queue, itemStore, embedder, logger)
	client.Embeddings = worker

	classifier := reco.NewIntentClassifier(embedder, logger)
	retriever := reco.NewRetriever(itemStore, embedder, classifier, client.queue, cfg.retrieval.IntentBoost(), logger).
		WithBypass(!cfg.retrieval.RAGEnabled())
	selector := reco.NewSelector(embedder, logger)

	var delegate *reco.Delegate
	if cfg.gemini.IsConfigured() {
		gem, err := provider.NewGeminiProvider(ctx, cfg.gemini)
		if err != nil {
			logger.Warn("generative delegate disabled", "error", err)
		} else {
			delegate = reco.NewDelegate(gem, cfg.gemini.TokenBudget(), logger)
			client.closers = append(client.closers, gem)
			logger.Info("generative delegate enabled", "model", cfg.gemini.Model())
		}
	}

	client.Wardrobe = service.NewWardrobe(itemStore, client.queue, client.cache, logger)
	client.Outfits = service.NewOutfits(outfitStore, itemStore, logger)
	client.Suggestions = service.NewSuggestions(
		retriever,
		selector,
		delegate,
		client.cache,
		cfg.cacheCfg.SuggestionTTL(),
		&client.closed,
		logger,
	)

	worker.Start(ctx)
	go client.warmup(ctx)

	return client, nil
}

// Close stops the embedding worker and releases all resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.Embeddings.Stop()

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", "error", err)
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("stylo client closed")
	return nil
}

// Ready reports whether the database responds and the embedding model
// warmup has run. Rule-only operation still counts as ready; readiness
// gates traffic, not semantic quality.
func (c *Client) Ready() bool {
	return c.ready.Load()
}

// Ping verifies database connectivity with a single round-trip.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.Ping(ctx)
}

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger {
	return c.logger
}

// warmup primes the embedding model off the request path so the first
// suggestion does not pay the model load. Failures downgrade to
// rule-only operation instead of blocking readiness forever.
func (c *Client) warmup(ctx context.Context) {
	if err := c.db.Ping(ctx); err != nil {
		c.logger.Error("database ping failed during warmup", "error", err)
	}
	if _, err := suggestion.EmbedOne(ctx, c.embedder, "warmup"); err != nil {
		c.logger.Warn("embedding warmup failed, semantic scoring degraded", "error", err)
	}
	c.ready.Store(true)
	c.logger.Info("client ready")
}

// buildCache connects the configured backend, degrading to the
// in-process TTL cache when Redis is unset or unreachable.
func buildCache(ctx context.Context, cfg *clientConfig, logger *log.Logger) cache.Cache {
	url := cfg.cacheCfg.RedisURL()
	if url == "" {
		return cache.NewMemoryCache()
	}
	redis, err := cache.NewRedisCache(ctx, url)
	if err != nil {
		logger.Warn("redis unreachable, using in-process cache", "error", err)
		return cache.NewMemoryCache()
	}
	logger.Info("suggestion cache backed by redis")
	return redis
}

// buildEmbeddingProvider picks the embedding backend: an explicitly
// injected provider, a configured remote endpoint, or the local ONNX
// model. When none are usable the pipeline runs rule-only.
func buildEmbeddingProvider(cfg *clientConfig, dataDir string, logger *log.Logger) provider.Embedder {
	if cfg.embeddingProvider != nil {
		return cfg.embeddingProvider
	}

	if ep := cfg.embedding.Endpoint(); ep != nil && ep.IsConfigured() {
		logger.Info("remote embedding endpoint enabled", "model", ep.Model())
		return provider.NewOpenAIEmbedding(*ep)
	}

	modelDir := cfg.modelDir
	if modelDir == "" {
		modelDir = filepath.Join(dataDir, "models")
	}
	hugotEmbedding := provider.NewHugotEmbedding(modelDir)
	if hugotEmbedding.Available() {
		logger.Info("local embedding model enabled", "model_dir", modelDir)
		return hugotEmbedding
	}

	logger.Warn("no embedding model found, running rule-only",
		"model_dir", modelDir,
		"hint", "run 'go run ./tools/download-model' or configure EMBEDDING_ENDPOINT_*")
	return provider.NewDisabledEmbedding()
}
