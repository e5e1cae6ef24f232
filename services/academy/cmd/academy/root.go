package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/breaker"
	platformconfig "github.com/example/drone-academy/internal/platform/config"
	"github.com/example/drone-academy/internal/platform/logging"
	"github.com/example/drone-academy/services/academy/internal/config"
	"github.com/example/drone-academy/services/academy/internal/generation"
	"github.com/example/drone-academy/services/academy/internal/llm"
)

var rootCmd = &cobra.Command{
	Use:           "academy",
	Short:         "Drone academy course service",
	Long:          "Serves the academy API and inspects the playlist, transcript and content generation upstreams.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("env-file")
		return loadEnvFile(path)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().String("env-file", "", "Load variables from this file (default .env when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playlistCmd)
	rootCmd.AddCommand(transcriptCmd)
	rootCmd.AddCommand(contentCmd)
}

// loadEnvFile applies --env-file, or ./.env when it exists. Variables already
// set in the environment win.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load()
	}
	return nil
}

// toolLogger builds the logger for the inspection commands. --log-level wins
// over LOG_LEVEL, which wins over "warn".
func toolLogger(cmd *cobra.Command) (*zap.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = platformconfig.EnvString("LOG_LEVEL", "warn")
	}
	return logging.NewConsole(level)
}

// newGenerator builds the configured content generation backend.
func newGenerator(ctx context.Context, c config.Clients, log *zap.Logger) (generation.Generator, error) {
	if c.GenerationBackend == config.BackendRemote {
		cb := breaker.New("content-generation", c.Breaker, log)
		return generation.NewRemoteGenerator(c.GenerationURL, c.GenerationAPIKey, cb, log), nil
	}
	provider, err := llm.NewProvider(ctx, c.LLM, log)
	if err != nil {
		return nil, err
	}
	return generation.NewLLMGenerator(provider, log), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
