// Package cmd implements the CLI commands for docpipe using Cobra.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gaurav-prasanna/docpipe/config"
	"github.com/gaurav-prasanna/docpipe/core/fetch"
	"github.com/gaurav-prasanna/docpipe/core/normalize"
	"github.com/gaurav-prasanna/docpipe/pipeline"
	"github.com/gaurav-prasanna/docpipe/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Global flag variables.
var (
	flagConfig   string
	flagLogLevel string
	flagTimeout  int
)

// Loaded in PersistentPreRunE and shared by every command.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docpipe",
	Short: "docpipe: fetch and normalize documentation for LLM prompts",
	Long: `docpipe fetches documentation URLs, classifies what went wrong when a page
cannot be read, and turns the rest into bounded plain text ready to paste into
a chat-completion prompt.

Usage:
  docpipe crawl <url>... [flags]
  docpipe probe <url>...
  docpipe chat
  docpipe monitor add|list|remove|crawl|run
  docpipe key set|clear`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file (default: ./docpipe.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 0, "Per-request fetch timeout in seconds")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		loaded.Log.Level = flagLogLevel
	}
	if flagTimeout > 0 {
		loaded.Fetch.TimeoutSecs = flagTimeout
	}
	cfg = loaded

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
	return nil
}

// newPipeline builds the fetch → normalize pipeline from the loaded config.
func newPipeline() *pipeline.Pipeline {
	fetcher := fetch.New(cfg.Fetch, logger)
	normalizer := normalize.New(cfg.Normalize, logger)
	return pipeline.New(fetcher, normalizer, cfg.Pipeline, logger)
}

// openStore opens the configured database.
func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug().Str("path", st.Path()).Msg("Store opened")
	return st, nil
}
