package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xhad/bookrag/internal/types"
)

// ErrStore is returned for any vector store failure.
var ErrStore = errors.New("vector store error")

const (
	BackendQdrant   = "qdrant"
	BackendPGVector = "pgvector"
	BackendMemory   = "memory"

	DefaultCollection  = "physical_ai_book"
	DefaultVectorDim   = 1024
	DefaultSearchLimit = 5
)

type VectorStoreConfig struct {
	Backend     string
	URL         string // Qdrant base URL
	APIKey      string
	ConnString  string // Postgres connection string for pgvector
	Collection  string
	VectorDim   int
	SearchLimit int
	Timeout     time.Duration
}

func (c VectorStoreConfig) withDefaults() VectorStoreConfig {
	if c.Backend == "" {
		c.Backend = BackendQdrant
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.VectorDim == 0 {
		c.VectorDim = DefaultVectorDim
	}
	if c.SearchLimit == 0 {
		c.SearchLimit = DefaultSearchLimit
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// New opens the configured backend.
func New(ctx context.Context, config VectorStoreConfig) (types.VectorStore, error) {
	config = config.withDefaults()

	switch config.Backend {
	case BackendQdrant:
		return NewQdrant(config)
	case BackendPGVector:
		return NewPGVector(ctx, config)
	case BackendMemory:
		return NewMemory(config.VectorDim), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrStore, config.Backend)
	}
}
