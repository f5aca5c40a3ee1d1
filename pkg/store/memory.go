package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/xhad/bookrag/internal/models"
)

// MemoryStore keeps points in process and searches by brute-force cosine
// similarity. Used for tests and local runs without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	points    []models.Point
	index     map[int64]int
}

func NewMemory(dimension int) *MemoryStore {
	if dimension <= 0 {
		dimension = DefaultVectorDim
	}
	return &MemoryStore{
		dimension: dimension,
		index:     make(map[int64]int),
	}
}

func (s *MemoryStore) Recreate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = nil
	s.index = make(map[int64]int)
	return nil
}

// Upsert replaces points with an existing id and appends the rest.
func (s *MemoryStore) Upsert(ctx context.Context, points []models.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: vector dimension mismatch: got %d, want %d", ErrStore, len(p.Vector), s.dimension)
		}
	}
	for _, p := range points {
		if i, ok := s.index[p.ID]; ok {
			s.points[i] = p
			continue
		}
		s.index[p.ID] = len(s.points)
		s.points = append(s.points, p)
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, vector []float32, limit int) ([]models.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	hits := make([]models.SearchHit, len(s.points))
	for i, p := range s.points {
		hits[i] = models.SearchHit{
			ID:    p.ID,
			Score: cosine(p.Vector, vector),
			URL:   p.URL,
			Text:  p.Text,
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit > len(hits) {
		limit = len(hits)
	}
	return hits[:limit], nil
}

// Points returns a copy of every stored point in insertion order.
func (s *MemoryStore) Points() []models.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Point(nil), s.points...)
}

func (s *MemoryStore) Close() {}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
