package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/xhad/bookrag/internal/models"
)

// QdrantStore is a minimal REST client for one Qdrant collection using cosine
// distance.
type QdrantStore struct {
	config VectorStoreConfig
	base   string
	client *http.Client
}

func NewQdrant(config VectorStoreConfig) (*QdrantStore, error) {
	config = config.withDefaults()
	if config.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", ErrStore)
	}
	if _, err := url.Parse(config.URL); err != nil {
		return nil, fmt.Errorf("%w: invalid qdrant url: %v", ErrStore, err)
	}

	return &QdrantStore{
		config: config,
		base:   strings.TrimRight(config.URL, "/") + "/collections/" + url.PathEscape(config.Collection),
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Recreate drops the collection if it exists and creates it empty.
func (s *QdrantStore) Recreate(ctx context.Context) error {
	if err := s.do(ctx, http.MethodDelete, s.base, nil, nil, http.StatusNotFound); err != nil {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.config.VectorDim,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, s.base, body, nil)
}

type qdrantPoint struct {
	ID      int64          `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (s *QdrantStore) Upsert(ctx context.Context, points []models.Point) error {
	if len(points) == 0 {
		return nil
	}

	body := struct {
		Points []qdrantPoint `json:"points"`
	}{Points: make([]qdrantPoint, len(points))}
	for i, p := range points {
		if len(p.Vector) != s.config.VectorDim {
			return fmt.Errorf("%w: point %d has dimension %d, collection expects %d", ErrStore, p.ID, len(p.Vector), s.config.VectorDim)
		}
		body.Points[i] = qdrantPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload()}
	}

	return s.do(ctx, http.MethodPut, s.base+"/points?wait=true", body, nil)
}

type qdrantSearchResponse struct {
	Result []struct {
		ID      int64   `json:"id"`
		Score   float32 `json:"score"`
		Payload struct {
			URL  string `json:"url"`
			Text string `json:"text"`
		} `json:"payload"`
	} `json:"result"`
}

// Search returns the closest points, best match first.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = s.config.SearchLimit
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp qdrantSearchResponse
	if err := s.do(ctx, http.MethodPost, s.base+"/points/search", req, &resp); err != nil {
		return nil, err
	}

	hits := make([]models.SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, models.SearchHit{
			ID:    r.ID,
			Score: r.Score,
			URL:   r.Payload.URL,
			Text:  r.Payload.Text,
		})
	}
	return hits, nil
}

func (s *QdrantStore) Close() {
	s.client.CloseIdleConnections()
}

// do sends a JSON request. Statuses listed in tolerate are treated as success.
func (s *QdrantStore) do(ctx context.Context, method, target string, body, out any, tolerate ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal request: %v", ErrStore, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.config.APIKey != "" {
		req.Header.Set("api-key", s.config.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s: %v", ErrStore, method, err)
	}
	defer resp.Body.Close()

	for _, code := range tolerate {
		if resp.StatusCode == code {
			return nil
		}
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: qdrant %s %s failed: %s: %s", ErrStore, method, target, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode qdrant response: %v", ErrStore, err)
		}
	}
	return nil
}
