// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfigYAML = `
app:
  name: support-engine
  environment: test

database:
  elasticsearch:
    addresses:
      - http://localhost:9200

models:
  classifier:
    base_url: http://localhost:8001
  sentiment:
    base_url: http://localhost:8002

routing:
  config_path: configs/routing_config.json

retrieval:
  metadata_path: data/kb_metadata.json
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Run("minimal config gets defaults", func(t *testing.T) {
		cfg, err := LoadFromFile(writeConfig(t, minimalConfigYAML))
		require.NoError(t, err)

		assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.SmallModel)
		assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.BigModel)
		assert.Equal(t, 0.3, cfg.LLM.Temperature)
		assert.Equal(t, 300, cfg.LLM.MaxTokens)
		assert.Equal(t, 0.250, cfg.LLM.InputCostPer1M)
		assert.Equal(t, 2.000, cfg.LLM.OutputCostPer1M)
		assert.Equal(t, 2, cfg.Retrieval.TopK)
		assert.Equal(t, 1000, cfg.Retrieval.CacheCap)
		assert.Equal(t, 20, cfg.Store.SessionHistory)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("explicit values win over defaults", func(t *testing.T) {
		cfg, err := LoadFromFile(writeConfig(t, minimalConfigYAML+`
llm:
  small_model: custom-model
  max_tokens: 512
`))
		require.NoError(t, err)
		assert.Equal(t, "custom-model", cfg.LLM.SmallModel)
		assert.Equal(t, 512, cfg.LLM.MaxTokens)
	})

	t.Run("missing classifier endpoint rejected", func(t *testing.T) {
		_, err := LoadFromFile(writeConfig(t, `
database:
  elasticsearch:
    addresses: [http://localhost:9200]
models:
  sentiment:
    base_url: http://localhost:8002
routing:
  config_path: configs/routing_config.json
retrieval:
  metadata_path: data/kb_metadata.json
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "models.classifier.base_url")
	})

	t.Run("audit enabled requires postgres settings", func(t *testing.T) {
		_, err := LoadFromFile(writeConfig(t, minimalConfigYAML+`
store:
  audit_enabled: true
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.postgres")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db.internal", Port: 5432, User: "engine", Password: "secret",
		Database: "support", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=engine password=secret dbname=support sslmode=require",
		p.GetDSN())
}
