package config

import (
	"fmt"
	"net/url"
	"regexp"
)

var collectionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks settings shared by every command.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider %q, expected openai or ollama", c.LLM.Provider),
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 16384 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 16384",
		})
	}

	if t := c.LLM.Temperature; t == nil || *t < 0 || *t > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.MaxTurns < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_turns",
			Message: "max_turns must be positive",
		})
	}

	if c.LLM.BaseURL != "" && !validURL(c.LLM.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid LLM base URL",
		})
	}

	// Validate embedding config
	if c.Embedding.Dimensions < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.dimensions",
			Message: "dimensions must be positive",
		})
	}

	if !validURL(c.Embedding.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "embedding.base_url",
			Message: "invalid embedding base URL",
		})
	}

	// Validate vector store config
	switch c.VectorStore.Backend {
	case "qdrant":
		if !validURL(c.VectorStore.URL) {
			errors = append(errors, ValidationError{
				Field:   "vector_store.url",
				Message: "QDRANT_URL is required for the qdrant backend",
			})
		}
	case "pgvector":
		if c.VectorStore.DatabaseURL == "" {
			errors = append(errors, ValidationError{
				Field:   "vector_store.database_url",
				Message: "DATABASE_URL is required for the pgvector backend",
			})
		}
	case "memory":
	default:
		errors = append(errors, ValidationError{
			Field:   "vector_store.backend",
			Message: fmt.Sprintf("unknown backend %q, expected qdrant, pgvector or memory", c.VectorStore.Backend),
		})
	}

	if !collectionName.MatchString(c.VectorStore.Collection) {
		errors = append(errors, ValidationError{
			Field:   "vector_store.collection",
			Message: "collection must start with a letter or underscore and contain only letters, digits, '_' or '-'",
		})
	}

	// Validate retrieval config
	if c.Retrieval.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.top_k",
			Message: "top_k must be positive",
		})
	}

	return errors
}

// ValidateIngest checks everything the ingest command needs.
func (c *Config) ValidateIngest() []ValidationError {
	errors := c.Validate()

	if c.Embedding.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "embedding.api_key",
			Message: "COHERE_API_KEY is required",
		})
	}

	if !validURL(c.Ingest.SitemapURL) {
		errors = append(errors, ValidationError{
			Field:   "ingest.sitemap_url",
			Message: "invalid sitemap URL",
		})
	}

	if c.Ingest.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "ingest.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Ingest.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "ingest.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	return errors
}

// ValidateServe checks everything answering questions needs.
func (c *Config) ValidateServe() []ValidationError {
	errors := c.Validate()

	if c.Embedding.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "embedding.api_key",
			Message: "COHERE_API_KEY is required",
		})
	}

	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key",
			Message: "OPENAI_API_KEY not found in environment variables",
		})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Server.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "server.workers",
			Message: "workers must be positive",
		})
	}

	return errors
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
