// Package config loads advisor settings from defaults, an optional YAML file
// and FINADV_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreBigQuery = "bigquery"
	StoreMemory   = "memory"
)

// Config is the complete advisor configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	BigQuery   BigQueryConfig   `yaml:"bigquery"`
	Storage    StorageConfig    `yaml:"storage"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Notion     NotionConfig     `yaml:"notion"`
	Log        LogConfig        `yaml:"log"`
	Jobs       JobsConfig       `yaml:"jobs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects the ledger backend.
type StoreConfig struct {
	// Backend is "bigquery" or "memory".
	Backend string `yaml:"backend"`
}

// BigQueryConfig locates the ledger dataset.
type BigQueryConfig struct {
	ProjectID string `yaml:"project_id"`
	DatasetID string `yaml:"dataset_id"`
}

// StorageConfig configures Cloud Storage uploads.
type StorageConfig struct {
	// Bucket receives CSV uploads; empty disables uploads.
	Bucket string `yaml:"bucket"`
}

// EmbeddingsConfig configures the embedding model.
type EmbeddingsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// JobsConfig sizes the ingestion job queue.
type JobsConfig struct {
	Buffer     int `yaml:"buffer"`
	Workers    int `yaml:"workers"`
	MaxRetries int `yaml:"max_retries"`
}

// DefaultConfig returns a Config with the values used in development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: StoreConfig{Backend: StoreBigQuery},
		BigQuery: BigQueryConfig{
			DatasetID: "finance",
		},
		Embeddings: EmbeddingsConfig{
			Enabled:    true,
			Model:      "gemini-embedding-001",
			Dimensions: 768,
		},
		Log: LogConfig{Level: "info", Format: "console"},
		Jobs: JobsConfig{
			Buffer:     100,
			Workers:    5,
			MaxRetries: 3,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StoreBigQuery:
		if c.BigQuery.ProjectID == "" {
			return fmt.Errorf("bigquery.project_id is required for the bigquery store")
		}
		if c.BigQuery.DatasetID == "" {
			return fmt.Errorf("bigquery.dataset_id is required for the bigquery store")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", StoreBigQuery, StoreMemory, c.Store.Backend)
	}
	if c.Embeddings.Enabled && c.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings.dimensions must be positive")
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be console or json")
	}
	if c.Jobs.Buffer <= 0 || c.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs.buffer and jobs.workers must be positive")
	}
	if c.Jobs.MaxRetries < 0 {
		return fmt.Errorf("jobs.max_retries must not be negative")
	}
	return nil
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load builds the effective configuration. path may be empty. Overrides run
// after the environment and before validation, so command-line flags win.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		fromFile, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fromFile
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("FINADV_PORT", &c.Server.Port)
	str("FINADV_STORE", &c.Store.Backend)
	str("GOOGLE_CLOUD_PROJECT", &c.BigQuery.ProjectID)
	str("FINADV_BQ_PROJECT", &c.BigQuery.ProjectID)
	str("FINADV_BQ_DATASET", &c.BigQuery.DatasetID)
	str("GCS_BUCKET", &c.Storage.Bucket)
	str("FINADV_GCS_BUCKET", &c.Storage.Bucket)
	str("FINADV_EMBEDDINGS_MODEL", &c.Embeddings.Model)
	str("FINADV_NOTION_TOKEN", &c.Notion.Token)
	str("FINADV_NOTION_DATABASE_ID", &c.Notion.DatabaseID)
	str("FINADV_LOG_LEVEL", &c.Log.Level)
	str("FINADV_LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("FINADV_EMBEDDINGS_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FINADV_EMBEDDINGS_ENABLED: %w", err)
		}
		c.Embeddings.Enabled = enabled
	}
	if v, ok := lookup("FINADV_JOB_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FINADV_JOB_WORKERS: %w", err)
		}
		c.Jobs.Workers = n
	}
	return nil
}
