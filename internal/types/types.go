package types

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/xhad/bookrag/internal/models"
)

// Core interfaces
type VectorStore interface {
	Recreate(ctx context.Context) error
	Upsert(ctx context.Context, points []models.Point) error
	Search(ctx context.Context, vector []float32, limit int) ([]models.SearchHit, error)
	Close()
}

// Embedder produces vectors for stored documents and for search queries. The
// two modes may be embedded differently by the provider.
type Embedder = embeddings.Embedder

type Fetcher interface {
	FetchSitemap(ctx context.Context, sitemapURL string) ([]string, error)
	FetchPage(ctx context.Context, pageURL string) (models.SourceDocument, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

type Answerer interface {
	Answer(ctx context.Context, message string) (string, error)
}
