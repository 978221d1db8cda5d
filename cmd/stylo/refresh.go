package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stylo-app/stylo"
	"github.com/stylo-app/stylo/internal/config"
	"github.com/stylo-app/stylo/internal/log"
)

func refreshCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "refresh-embeddings",
		Short: "Re-embed every catalog item with a missing or stale vector",
		Long: `Re-embed every catalog item with a missing or stale vector.

Walks the whole catalog, across all owners, and synchronously embeds any
item whose stored vector is absent. Run this after switching embedding
models or restoring a database backup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			return runRefresh(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}

func runRefresh(cmd *cobra.Command, cfg config.AppConfig) error {
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)

	client, err := stylo.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create stylo client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	refreshed, err := client.Embeddings.RefreshMissing(cmd.Context(), "")
	if err != nil {
		return fmt.Errorf("refresh embeddings: %w", err)
	}

	cmd.Printf("Refreshed embeddings for %d items\n", refreshed)
	return nil
}

// clientOptions translates server configuration into stylo client options.
func clientOptions(cfg config.AppConfig, logger *log.Logger) []stylo.Option {
	opts := []stylo.Option{
		stylo.WithDataDir(cfg.DataDir()),
		stylo.WithModelDir(cfg.ModelDir()),
		stylo.WithLogger(logger),
		stylo.WithEmbeddingConfig(cfg.Embedding()),
		stylo.WithGeminiConfig(cfg.Gemini()),
		stylo.WithCacheConfig(cfg.Cache()),
		stylo.WithRetrievalConfig(cfg.Retrieval()),
	}
	if cfg.DBURL() != "" {
		opts = append(opts, stylo.WithDBURL(cfg.DBURL()))
	}
	return opts
}
