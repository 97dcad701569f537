package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/inventree/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Retrieval.K)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  path: /var/lib/inventree
records:
  patents: data/patents.json
embedding:
  provider: ollama
  host: http://gpu-box:11434
  model: mxbai-embed-large
  retry_delay: 2s
retrieval:
  k: 8
  dense_fallback: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/inventree", cfg.Store.Path)
	assert.Equal(t, "data/patents.json", cfg.Records.Patents)
	assert.Equal(t, "patent_gap_dataset.json", cfg.Records.Gaps, "unset keys keep defaults")
	assert.Equal(t, ai.ProviderOllama, cfg.Embedding.Provider)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedding.Model)
	assert.Equal(t, 2*time.Second, cfg.Embedding.RetryDelay)
	assert.Equal(t, 16, cfg.Embedding.BatchSize)
	assert.Equal(t, 8, cfg.Retrieval.K)
	assert.True(t, cfg.Retrieval.DenseFallback)

	aiCfg := cfg.AI()
	require.NoError(t, aiCfg.Validate())
	assert.Equal(t, "http://gpu-box:11434", aiCfg.EmbeddingHost)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvEmbeddingToken, "secret")
	t.Setenv(EnvStorePath, "/tmp/env.db")

	cfg, err := Load(writeConfig(t, "store:\n  path: /from/file\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Store.Path)
	assert.Equal(t, "secret", cfg.Embedding.Token)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "bad yaml", content: "store: [", errMsg: "failed to parse config"},
		{name: "zero k", content: "retrieval:\n  k: 0\n", errMsg: "retrieval.k"},
		{name: "zero batch", content: "embedding:\n  batch_size: 0\n", errMsg: "batch_size"},
		{name: "no records", content: "records:\n  patents: \"\"\n  gaps: \"\"\n", errMsg: "records"},
		{name: "no store", content: "store:\n  path: \"\"\n", errMsg: "store.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
