// Package config loads docpipe settings from defaults, an optional YAML file,
// an optional .env file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gaurav-prasanna/docpipe/chat"
	"github.com/gaurav-prasanna/docpipe/core/fetch"
	"github.com/gaurav-prasanna/docpipe/core/normalize"
	"github.com/gaurav-prasanna/docpipe/monitor"
	"github.com/gaurav-prasanna/docpipe/pipeline"
	"github.com/gaurav-prasanna/docpipe/store"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config path is given and the file exists.
const DefaultPath = "docpipe.yaml"

// Config is the full docpipe configuration.
type Config struct {
	Fetch     fetch.Config     `yaml:"fetch"`
	Normalize normalize.Config `yaml:"normalize"`
	Pipeline  pipeline.Config  `yaml:"pipeline"`
	Chat      chat.Config      `yaml:"chat"`
	Monitor   monitor.Config   `yaml:"monitor"`
	Store     store.Config     `yaml:"store"`
	Log       LogConfig        `yaml:"log"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// WithDefaults fills zero fields in every section.
func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	c.Fetch = c.Fetch.WithDefaults()
	c.Pipeline = c.Pipeline.WithDefaults()
	c.Chat = c.Chat.WithDefaults()
	c.Monitor = c.Monitor.WithDefaults()
	c.Store = c.Store.WithDefaults()
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
	if c.Normalize.HTMLMode == "" {
		c.Normalize.HTMLMode = normalize.HTMLModeText
	}
	return c
}

// Load reads path (or DefaultPath when empty) and ./.env, then applies
// environment overrides. An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	ApplyEnv(cfg)
	return cfg.WithDefaults(), nil
}

// ApplyEnv overlays DOCPIPE_* (and OPENAI_API_KEY) variables onto cfg.
func ApplyEnv(cfg *Config) {
	cfg.Chat.APIKey = envOr(cfg.Chat.APIKey, os.Getenv("OPENAI_API_KEY"))
	cfg.Chat.APIKey = envOr(cfg.Chat.APIKey, os.Getenv("DOCPIPE_API_KEY"))
	cfg.Chat.Model = envOr(cfg.Chat.Model, os.Getenv("DOCPIPE_MODEL"))
	cfg.Chat.BaseURL = envOr(cfg.Chat.BaseURL, os.Getenv("DOCPIPE_BASE_URL"))
	cfg.Fetch.Origin = envOr(cfg.Fetch.Origin, os.Getenv("DOCPIPE_ORIGIN"))
	cfg.Store.Path = envOr(cfg.Store.Path, os.Getenv("DOCPIPE_DB"))
	cfg.Log.Level = envOr(cfg.Log.Level, os.Getenv("DOCPIPE_LOG_LEVEL"))
}

func envOr(existing, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return existing
	}
	return value
}
