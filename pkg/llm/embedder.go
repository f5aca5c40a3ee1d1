package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
)

// ErrEmbedding is returned when the embedding provider fails or returns an
// unexpected payload.
var ErrEmbedding = errors.New("embedding failed")

const (
	DefaultEmbedModel   = "embed-english-v3.0"
	DefaultEmbedBaseURL = "https://api.cohere.ai/v1"
	// DefaultDimensions is the vector size produced by DefaultEmbedModel.
	DefaultDimensions = 1024
	// DefaultBatchSize is the most texts Cohere accepts in one embed call.
	DefaultBatchSize = 96

	inputTypeDocument = "search_document"
	inputTypeQuery    = "search_query"
)

// EmbedderConfig represents the configuration for the Cohere embedding client.
type EmbedderConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	BatchSize int
	Timeout   time.Duration
	Client    *http.Client
}

// Embedder calls the Cohere embed endpoint. Documents and queries are embedded
// with different input types.
type Embedder struct {
	config EmbedderConfig
	client *http.Client
}

var _ embeddings.Embedder = (*Embedder)(nil)

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: missing Cohere API key", ErrEmbedding)
	}
	if config.Model == "" {
		config.Model = DefaultEmbedModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultEmbedBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Embedder{
		config: config,
		client: client,
	}, nil
}

// Model returns the configured embedding model name.
func (e *Embedder) Model() string {
	return e.config.Model
}

type embedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	ID         string      `json:"id"`
	Embeddings [][]float32 `json:"embeddings"`
	Message    string      `json:"message,omitempty"`
}

// EmbedDocuments embeds texts for storage, in batches of at most BatchSize.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	client := embeddings.EmbedderClientFunc(func(ctx context.Context, batch []string) ([][]float32, error) {
		return e.embed(ctx, batch, inputTypeDocument)
	})
	return embeddings.BatchedEmbed(ctx, client, texts, e.config.BatchSize)
}

// EmbedQuery embeds a single search query.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text}, inputTypeQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{
		Texts:     texts,
		Model:     e.config.Model,
		InputType: inputType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrEmbedding, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: cohere returned status %d: %s", ErrEmbedding, resp.StatusCode, truncate(string(body), 200))
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrEmbedding, err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbedding, len(texts), len(result.Embeddings))
	}

	return result.Embeddings, nil
}
