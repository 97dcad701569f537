// Package config loads inventree settings from a YAML file.
//
// Every field has a default, so a missing file or an empty document yields a
// working local setup. Secrets such as the embedding token can come from the
// environment instead of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/inventree/ai"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvStorePath      = "INVENTREE_DB"
	EnvEmbeddingHost  = "INVENTREE_EMBEDDING_HOST"
	EnvEmbeddingModel = "INVENTREE_EMBEDDING_MODEL"
	EnvEmbeddingToken = "INVENTREE_EMBEDDING_TOKEN"
)

// Config is the root of the configuration file.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Records   RecordsConfig   `yaml:"records"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// StoreConfig locates the index store.
type StoreConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// RecordsConfig locates the source JSON documents.
type RecordsConfig struct {
	Patents string `yaml:"patents"`
	Gaps    string `yaml:"gaps"`
}

// EmbeddingConfig configures the embedding provider and dense builds.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"`
	Host       string        `yaml:"host"`
	Model      string        `yaml:"model"`
	Token      string        `yaml:"token,omitempty"`
	SparseOnly bool          `yaml:"sparse_only"`
	BatchSize  int           `yaml:"batch_size"`
	PoolSize   int           `yaml:"pool_size"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// RetrievalConfig configures queries and index loading.
type RetrievalConfig struct {
	K                int  `yaml:"k"`
	DenseFallback    bool `yaml:"dense_fallback"`
	RebuildOnCorrupt bool `yaml:"rebuild_on_corrupt"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Store: StoreConfig{Path: "inventree.db"},
		Records: RecordsConfig{
			Patents: "patent.json",
			Gaps:    "patent_gap_dataset.json",
		},
		Embedding: EmbeddingConfig{
			Provider:   aiDefaults.Provider,
			Host:       aiDefaults.EmbeddingHost,
			Model:      aiDefaults.EmbeddingModel,
			Token:      aiDefaults.Token,
			BatchSize:  16,
			MaxRetries: 3,
			RetryDelay: 500 * time.Millisecond,
		},
		Retrieval: RetrievalConfig{K: 5},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvStorePath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvEmbeddingHost); v != "" {
		c.Embedding.Host = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv(EnvEmbeddingToken); v != "" {
		c.Embedding.Token = v
	}
}

// Validate checks value ranges. Embedding endpoint settings are checked by
// AI().Validate when a provider is created.
func (c *Config) Validate() error {
	if c.Store.Path == "" && !c.Store.InMemory {
		return errors.New("config: store.path is required")
	}
	if c.Records.Patents == "" && c.Records.Gaps == "" {
		return errors.New("config: at least one of records.patents and records.gaps is required")
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("config: embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.MaxRetries < 1 {
		return fmt.Errorf("config: embedding.max_retries must be positive, got %d", c.Embedding.MaxRetries)
	}
	if c.Embedding.RetryDelay < 0 {
		return fmt.Errorf("config: embedding.retry_delay must not be negative, got %s", c.Embedding.RetryDelay)
	}
	if c.Retrieval.K < 1 {
		return fmt.Errorf("config: retrieval.k must be positive, got %d", c.Retrieval.K)
	}
	return nil
}

// AI returns the embedding section as an ai.Config.
func (c *Config) AI() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(c.Embedding.Provider),
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithToken(c.Embedding.Token),
	)
}
