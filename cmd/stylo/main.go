// Package main is the entry point for the stylo CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stylo-app/stylo/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stylo",
		Short: "Stylo wardrobe suggestion server",
		Long:  `Stylo is a wardrobe backend that keeps per-item embeddings fresh and proposes ranked, complete outfits for free-text requests.`,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(refreshCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
