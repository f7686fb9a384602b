package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StoreBigQuery, cfg.Store.Backend)
	assert.Equal(t, "finance", cfg.BigQuery.DatasetID)
	assert.Equal(t, 768, cfg.Embeddings.Dimensions)
	assert.Equal(t, 5, cfg.Jobs.Workers)
	assert.Empty(t, cfg.BigQuery.ProjectID)
	assert.ErrorContains(t, cfg.Validate(), "bigquery.project_id is required")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default without project", func(c *Config) {}, true},
		{"bigquery with project", func(c *Config) { c.BigQuery.ProjectID = "proj" }, false},
		{"memory without dataset", func(c *Config) { c.Store.Backend = StoreMemory; c.BigQuery.DatasetID = "" }, false},
		{"bigquery without dataset", func(c *Config) { c.BigQuery.ProjectID = "proj"; c.BigQuery.DatasetID = "" }, true},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, true},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"zero dimensions", func(c *Config) { c.Embeddings.Dimensions = 0 }, true},
		{"zero dimensions disabled", func(c *Config) {
			c.BigQuery.ProjectID = "proj"
			c.Embeddings.Enabled = false
			c.Embeddings.Dimensions = 0
		}, false},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"no workers", func(c *Config) { c.Jobs.Workers = 0 }, true},
		{"negative retries", func(c *Config) { c.Jobs.MaxRetries = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.yaml")
	content := `
server:
  port: "9090"
  read_timeout: 5s
store:
  backend: memory
embeddings:
  enabled: false
jobs:
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "unset fields keep defaults")
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.False(t, cfg.Embeddings.Enabled)
	assert.Equal(t, 2, cfg.Jobs.Workers)
	assert.Equal(t, 100, cfg.Jobs.Buffer)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FINADV_STORE":              "memory",
		"FINADV_PORT":               "7000",
		"GCS_BUCKET":                "legacy-bucket",
		"FINADV_GCS_BUCKET":         "advisor-uploads",
		"FINADV_EMBEDDINGS_ENABLED": "false",
		"FINADV_JOB_WORKERS":        "3",
		"FINADV_LOG_LEVEL":          "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "advisor-uploads", cfg.Storage.Bucket)
	assert.False(t, cfg.Embeddings.Enabled)
	assert.Equal(t, 3, cfg.Jobs.Workers)
	assert.Equal(t, "info", cfg.Log.Level, "empty values are ignored")

	env["FINADV_JOB_WORKERS"] = "many"
	assert.Error(t, DefaultConfig().applyEnv(lookup))
}

func TestLoadOverridesRunBeforeValidate(t *testing.T) {
	t.Setenv("FINADV_STORE", "bigquery")
	t.Setenv("FINADV_BQ_PROJECT", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	_, err := Load("")
	assert.ErrorContains(t, err, "bigquery.project_id is required")

	cfg, err := Load("", func(c *Config) { c.BigQuery.ProjectID = "flag-project" })
	require.NoError(t, err)
	assert.Equal(t, "flag-project", cfg.BigQuery.ProjectID)
}

func TestProjectFromEnvironment(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "GOOGLE_CLOUD_PROJECT" {
			return "gcp-project", true
		}
		return "", false
	}
	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, "gcp-project", cfg.BigQuery.ProjectID)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("FINADV_STORE", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
}
