package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_BASE_URL", "LLM_MODEL", "OLLAMA_BASE_URL",
	"COHERE_API_KEY", "EMBED_MODEL", "VECTOR_BACKEND", "QDRANT_URL", "QDRANT_API_KEY",
	"DATABASE_URL", "COLLECTION_NAME", "SITEMAP_URL", "ALLOWED_ORIGINS", "PORT", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)

	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  provider: "ollama"
  model: "llama3"
  max_tokens: 1000
  temperature: 0.5

embedding:
  api_key: "cohere-key"

vector_store:
  backend: "pgvector"
  database_url: "postgres://localhost:5432/test"
  collection: "test_chunks"

ingest:
  sitemap_url: "https://book.example/sitemap.xml"
  chunk_size: 500
  timeout: 10s
  ignore_patterns:
    - "/blog/"

server:
  port: 9000
  allowed_origins:
    - "http://localhost:3000"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	require.NotNil(t, config.LLM.Temperature)
	assert.Equal(t, 0.5, *config.LLM.Temperature)
	assert.Equal(t, "postgres://localhost:5432/test", config.VectorStore.DatabaseURL)
	assert.Equal(t, "test_chunks", config.VectorStore.Collection)
	assert.Equal(t, 500, config.Ingest.ChunkSize)
	assert.Equal(t, 10*time.Second, config.Ingest.Timeout)
	assert.Equal(t, []string{"/blog/"}, config.Ingest.IgnorePatterns)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, config.Server.AllowedOrigins)

	// Defaults fill the rest
	assert.Equal(t, 1024, config.Embedding.Dimensions)
	assert.Equal(t, 5, config.Retrieval.TopK)
	assert.Equal(t, 4, config.Server.Workers)

	assert.Empty(t, config.ValidateIngest())
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", config.LLM.Model)
	assert.Empty(t, config.LLM.BaseURL)
	assert.Equal(t, 10, config.LLM.MaxTurns)
	require.NotNil(t, config.LLM.Temperature)
	assert.Equal(t, DefaultTemperature, *config.LLM.Temperature)
	assert.Equal(t, "embed-english-v3.0", config.Embedding.Model)
	assert.Equal(t, "qdrant", config.VectorStore.Backend)
	assert.Equal(t, "physical_ai_book", config.VectorStore.Collection)
	assert.Equal(t, DefaultSitemapURL, config.Ingest.SitemapURL)
	assert.Equal(t, 1200, config.Ingest.ChunkSize)
	assert.Equal(t, 8000, config.Server.Port)
	assert.Equal(t, []string{DefaultAllowedOrigin}, config.Server.AllowedOrigins)
	assert.Equal(t, "info", config.Log.Level)
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "error parsing config file")

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	t.Setenv("PORT", "eighty")
	_, err = LoadConfig(empty)
	assert.ErrorContains(t, err, "invalid PORT")
}

func TestLoadConfigZeroTemperature(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  temperature: 0\nvector_store:\n  backend: memory\n"), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, config.LLM.Temperature)
	assert.Zero(t, *config.LLM.Temperature)
	assert.Empty(t, config.Validate())
}

func validConfig() Config {
	config := Config{}
	config.Embedding.APIKey = "cohere-key"
	config.LLM.APIKey = "sk-test"
	config.VectorStore.URL = "https://qdrant.example:6333"
	applyDefaults(&config)
	return config
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		errorMessages []string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name: "invalid llm",
			mutate: func(c *Config) {
				c.LLM.Provider = "bard"
				c.LLM.MaxTokens = 50000
				hot := 3.0
				c.LLM.Temperature = &hot
			},
			errorMessages: []string{
				"llm.provider: unknown provider",
				"llm.max_tokens: max_tokens must be between 1 and 16384",
				"llm.temperature: temperature must be between 0 and 2",
			},
		},
		{
			name: "invalid store",
			mutate: func(c *Config) {
				c.VectorStore.URL = ""
				c.VectorStore.Collection = "drop table;"
			},
			errorMessages: []string{
				"vector_store.url: QDRANT_URL is required",
				"vector_store.collection",
			},
		},
		{
			name: "pgvector without database",
			mutate: func(c *Config) {
				c.VectorStore.Backend = "pgvector"
			},
			errorMessages: []string{
				"vector_store.database_url: DATABASE_URL is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			errors := config.Validate()
			require.Len(t, errors, len(tt.errorMessages))
			for i, msg := range tt.errorMessages {
				assert.Contains(t, errors[i].Error(), msg)
			}
		})
	}
}

func TestValidateCommands(t *testing.T) {
	config := validConfig()
	assert.Empty(t, config.ValidateIngest())
	assert.Empty(t, config.ValidateServe())

	config.LLM.APIKey = ""
	config.Embedding.APIKey = ""
	config.Server.Port = 70000

	ingestErrs := config.ValidateIngest()
	require.Len(t, ingestErrs, 1)
	assert.Equal(t, "embedding.api_key", ingestErrs[0].Field)

	serveErrs := config.ValidateServe()
	require.Len(t, serveErrs, 3)
	assert.Equal(t, "llm.api_key", serveErrs[1].Field)
	assert.Equal(t, "server.port", serveErrs[2].Field)

	// ollama needs no key
	config.LLM.Provider = "ollama"
	assert.Len(t, config.ValidateServe(), 2)
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_BASE_URL", "http://proxy.example/v1")
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	t.Setenv("QDRANT_URL", "https://cluster.qdrant.io")
	t.Setenv("COLLECTION_NAME", "book_v2")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	config := &Config{}
	require.NoError(t, mergeWithEnv(config))

	assert.Equal(t, "http://proxy.example/v1", config.LLM.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/test", config.VectorStore.DatabaseURL)
	assert.Equal(t, "https://cluster.qdrant.io", config.VectorStore.URL)
	assert.Equal(t, "book_v2", config.VectorStore.Collection)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, config.Server.AllowedOrigins)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "debug", config.Log.Level)

	t.Setenv("LLM_PROVIDER", "ollama")
	config = &Config{}
	require.NoError(t, mergeWithEnv(config))
	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
}
