package retrieval

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/xhad/bookrag/internal/types"
)

const (
	DefaultTopK = 5

	// ToolName is the function name the model calls to search the book.
	ToolName = "retrieve"
)

type RetrieverConfig struct {
	TopK int
}

// Retriever embeds a query and returns the text of the closest stored chunks.
type Retriever struct {
	config   RetrieverConfig
	embedder types.Embedder
	store    types.VectorStore
}

func NewWithConfig(config RetrieverConfig, embedder types.Embedder, store types.VectorStore) *Retriever {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	return &Retriever{
		config:   config,
		embedder: embedder,
		store:    store,
	}
}

// Retrieve returns up to TopK passages, closest first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.Search(ctx, vector, r.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	passages := make([]string, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, hit.Text)
	}
	return passages, nil
}

// Tool describes Retrieve to a tool-calling model.
func (r *Retriever) Tool() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        ToolName,
			Description: "Search the Physical AI and Humanoid Robotics textbook and return the most relevant passages.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to look up in the textbook.",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}
