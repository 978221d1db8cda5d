package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stylo-app/stylo"
	"github.com/stylo-app/stylo/infrastructure/api"
	apimiddleware "github.com/stylo-app/stylo/infrastructure/api/middleware"
	"github.com/stylo-app/stylo/internal/config"
	"github.com/stylo-app/stylo/internal/log"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.stylo)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/stylo.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  AUTH_SECRET                  HMAC secret for bearer token verification
  CORS_ORIGINS                 Comma-separated list of allowed origins

  RAG_ENABLED                  Semantic candidate filtering (default: true)
  EMBEDDING_MODEL              Sentence embedding model (default: all-MiniLM-L6-v2)
  EMBEDDING_BATCH_SIZE         Worker micro-batch size (default: 10)
  EMBEDDING_BATCH_TIMEOUT      Worker batch wait in seconds (default: 2)

  EMBEDDING_ENDPOINT_*         Remote embedding service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., text-embedding-3-small)
    API_KEY                    API key for authentication

  GEMINI_API_KEY               Enables the generative outfit delegate
  GEMINI_MODEL                 Generative model (default: gemini-2.5-flash)

  REDIS_URL                    Cache backend; unset uses the in-process cache
  SUGGEST_RATE_LIMIT           Suggestions per minute per IP (default: 30)
  MUTATE_RATE_LIMIT            Catalog mutations per minute per IP (default: 60)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	if cfg.AuthSecret() == "" {
		return fmt.Errorf("AUTH_SECRET is required to serve authenticated traffic")
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting stylo", attrs...)

	client, err := stylo.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create stylo client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close stylo client", slog.Any("error", err))
		}
	}()

	apiServer := api.NewAPIServer(client, api.Config{
		AuthSecret:       cfg.AuthSecret(),
		CORSOrigins:      cfg.CORSOrigins(),
		SuggestPerMinute: cfg.RateLimit().SuggestPerMinute(),
		MutatePerMinute:  cfg.RateLimit().MutatePerMinute(),
	})

	// Apply custom middleware before mounting routes.
	apiServer.Router().Use(apimiddleware.Logging(slogger))
	apiServer.MountRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	group, ctx := errgroup.WithContext(context.Background())
	group.Go(func() error {
		return apiServer.ListenAndServe(cfg.Addr())
	})
	group.Go(func() error {
		select {
		case sig := <-sigChan:
			slogger.Info("shutting down", slog.String("signal", sig.String()))
		case <-ctx.Done():
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return apiServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
