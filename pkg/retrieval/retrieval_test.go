package retrieval_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/xhad/bookrag/internal/models"
	"github.com/xhad/bookrag/pkg/retrieval"
	"github.com/xhad/bookrag/pkg/store"
)

type queryEmbedder struct {
	vector []float32
	err    error
	query  string
}

func (e *queryEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

func (e *queryEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.query = text
	return e.vector, e.err
}

func seed(t *testing.T, n int) *store.MemoryStore {
	t.Helper()
	mem := store.NewMemory(2)
	var points []models.Point
	for i := 1; i <= n; i++ {
		// Larger i points further from the x axis.
		chunk := models.Chunk{ID: int64(i), URL: "https://book.example", Text: fmt.Sprintf("passage %d", i)}
		points = append(points, models.NewPoint(chunk, []float32{1, float32(i)}))
	}
	require.NoError(t, mem.Upsert(context.Background(), points))
	return mem
}

func TestRetrieveTopFiveInOrder(t *testing.T) {
	embedder := &queryEmbedder{vector: []float32{1, 0}}
	r := retrieval.NewWithConfig(retrieval.RetrieverConfig{}, embedder, seed(t, 8))

	passages, err := r.Retrieve(context.Background(), "what is balance?")
	require.NoError(t, err)

	assert.Equal(t, "what is balance?", embedder.query)
	assert.Equal(t, []string{"passage 1", "passage 2", "passage 3", "passage 4", "passage 5"}, passages)
}

func TestRetrieveWithLangchainEmbedder(t *testing.T) {
	var seen []string
	client := embeddings.EmbedderClientFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		seen = append(seen, texts...)
		return [][]float32{{1, 0}}, nil
	})
	embedder, err := embeddings.NewEmbedder(client)
	require.NoError(t, err)

	r := retrieval.NewWithConfig(retrieval.RetrieverConfig{TopK: 2}, embedder, seed(t, 4))

	passages, err := r.Retrieve(context.Background(), "what is balance?")
	require.NoError(t, err)
	assert.Equal(t, []string{"what is balance?"}, seen)
	assert.Equal(t, []string{"passage 1", "passage 2"}, passages)
}

func TestRetrieveFewerThanTopK(t *testing.T) {
	r := retrieval.NewWithConfig(retrieval.RetrieverConfig{TopK: 5}, &queryEmbedder{vector: []float32{1, 0}}, seed(t, 2))

	passages, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, passages, 2)
}

func TestRetrieveEmptyStore(t *testing.T) {
	r := retrieval.NewWithConfig(retrieval.RetrieverConfig{}, &queryEmbedder{vector: []float32{1, 0}}, store.NewMemory(2))

	passages, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.NotNil(t, passages)
	assert.Empty(t, passages)
}

func TestRetrieveErrors(t *testing.T) {
	sentinel := errors.New("cohere unavailable")
	r := retrieval.NewWithConfig(retrieval.RetrieverConfig{}, &queryEmbedder{err: sentinel}, store.NewMemory(2))

	_, err := r.Retrieve(context.Background(), "q")
	assert.ErrorIs(t, err, sentinel)
}

func TestTool(t *testing.T) {
	r := retrieval.NewWithConfig(retrieval.RetrieverConfig{}, &queryEmbedder{}, store.NewMemory(2))

	tool := r.Tool()
	assert.Equal(t, "function", tool.Type)
	require.NotNil(t, tool.Function)
	assert.Equal(t, retrieval.ToolName, tool.Function.Name)

	params := tool.Function.Parameters.(map[string]any)
	assert.Equal(t, []string{"query"}, params["required"])
}
