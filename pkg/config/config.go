package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSitemapURL    = "https://physical-ai-humanoid-robotics-beige.vercel.app/sitemap.xml"
	DefaultAllowedOrigin = "https://physical-ai-humanoid-robotics-beige.vercel.app"
	DefaultTemperature   = 0.2
)

type LLMConfig struct {
	Provider    string   `yaml:"provider"`
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"` // nil means unset; 0 is a valid setting
	MaxTurns    int      `yaml:"max_turns"`
}

type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type VectorStoreConfig struct {
	Backend     string `yaml:"backend"`
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	DatabaseURL string `yaml:"database_url"`
	Collection  string `yaml:"collection"`
}

type IngestConfig struct {
	SitemapURL     string        `yaml:"sitemap_url"`
	ChunkSize      int           `yaml:"chunk_size"`
	RateLimit      float64       `yaml:"rate_limit"`
	Timeout        time.Duration `yaml:"timeout"`
	IgnorePatterns []string      `yaml:"ignore_patterns"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

type ServerConfig struct {
	Name           string   `yaml:"name"`
	Port           int      `yaml:"port"`
	Workers        int      `yaml:"workers"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/bookrag/config.yaml"),
			"/etc/bookrag/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	var config Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Merge with environment variables
	if err := mergeWithEnv(&config); err != nil {
		return nil, err
	}

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "openai"
	}
	if config.LLM.Model == "" {
		if config.LLM.Provider == "ollama" {
			config.LLM.Model = "mistral"
		} else {
			config.LLM.Model = "gpt-4o-mini"
		}
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 1024
	}
	if config.LLM.Temperature == nil {
		temperature := DefaultTemperature
		config.LLM.Temperature = &temperature
	}
	if config.LLM.MaxTurns == 0 {
		config.LLM.MaxTurns = 10
	}

	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = "https://api.cohere.ai/v1"
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "embed-english-v3.0"
	}
	if config.Embedding.Dimensions == 0 {
		config.Embedding.Dimensions = 1024
	}

	if config.VectorStore.Backend == "" {
		config.VectorStore.Backend = "qdrant"
	}
	if config.VectorStore.Collection == "" {
		config.VectorStore.Collection = "physical_ai_book"
	}

	if config.Ingest.SitemapURL == "" {
		config.Ingest.SitemapURL = DefaultSitemapURL
	}
	if config.Ingest.ChunkSize == 0 {
		config.Ingest.ChunkSize = 1200
	}
	if config.Ingest.RateLimit == 0 {
		config.Ingest.RateLimit = 2.0
	}
	if config.Ingest.Timeout == 0 {
		config.Ingest.Timeout = 30 * time.Second
	}

	if config.Retrieval.TopK == 0 {
		config.Retrieval.TopK = 5
	}

	if config.Server.Name == "" {
		config.Server.Name = "Enhanced RAG Chatbot API"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8000
	}
	if config.Server.Workers == 0 {
		config.Server.Workers = 4
	}
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{DefaultAllowedOrigin}
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

func mergeWithEnv(config *Config) error {
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if config.LLM.Provider == "ollama" {
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			config.LLM.BaseURL = baseURL
		}
	} else if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}

	if key := os.Getenv("COHERE_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	}
	if model := os.Getenv("EMBED_MODEL"); model != "" {
		config.Embedding.Model = model
	}

	if backend := os.Getenv("VECTOR_BACKEND"); backend != "" {
		config.VectorStore.Backend = backend
	}
	if qdrantURL := os.Getenv("QDRANT_URL"); qdrantURL != "" {
		config.VectorStore.URL = qdrantURL
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		config.VectorStore.APIKey = key
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.VectorStore.DatabaseURL = dbURL
	}
	if collection := os.Getenv("COLLECTION_NAME"); collection != "" {
		config.VectorStore.Collection = collection
	}

	if sitemap := os.Getenv("SITEMAP_URL"); sitemap != "" {
		config.Ingest.SitemapURL = sitemap
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = splitList(origins)
	}
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
