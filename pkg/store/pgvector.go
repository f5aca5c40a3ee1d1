package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/xhad/bookrag/internal/models"
)

// PGVectorStore keeps the collection in a Postgres table with a pgvector
// column.
type PGVectorStore struct {
	config VectorStoreConfig
	table  string
	pool   *pgxpool.Pool
}

func NewPGVector(ctx context.Context, config VectorStoreConfig) (*PGVectorStore, error) {
	config = config.withDefaults()
	if config.ConnString == "" {
		return nil, fmt.Errorf("%w: database url is required", ErrStore)
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %v", ErrStore, err)
	}

	return &PGVectorStore{
		config: config,
		table:  pgx.Identifier{config.Collection}.Sanitize(),
		pool:   pool,
	}, nil
}

// Recreate drops the table and creates it empty with a cosine index.
func (vs *PGVectorStore) Recreate(ctx context.Context) error {
	// Enable pgvector extension
	if _, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: failed to create vector extension: %v", ErrStore, err)
	}

	if _, err := vs.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", vs.table)); err != nil {
		return fmt.Errorf("%w: failed to drop table: %v", ErrStore, err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE %s (
			id BIGINT PRIMARY KEY,
			url TEXT NOT NULL,
			text TEXT NOT NULL,
			chunk_id BIGINT NOT NULL,
			embedding vector(%d)
		)`, vs.table, vs.config.VectorDim)
	if _, err := vs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("%w: failed to create table: %v", ErrStore, err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX ON %s
		USING hnsw (embedding vector_cosine_ops)`, vs.table)
	if _, err := vs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("%w: failed to create index: %v", ErrStore, err)
	}

	return nil
}

func (vs *PGVectorStore) Upsert(ctx context.Context, points []models.Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ErrStore, err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, url, text, chunk_id, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url,
			text = EXCLUDED.text,
			chunk_id = EXCLUDED.chunk_id,
			embedding = EXCLUDED.embedding`,
		vs.table)

	for _, p := range points {
		if len(p.Vector) != vs.config.VectorDim {
			return fmt.Errorf("%w: point %d has dimension %d, table expects %d", ErrStore, p.ID, len(p.Vector), vs.config.VectorDim)
		}
		_, err = tx.Exec(ctx, stmt,
			p.ID,
			sanitizeUTF8(p.URL),
			sanitizeUTF8(p.Text),
			p.ChunkID,
			pgvector.NewVector(p.Vector),
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert point %d: %v", ErrStore, p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrStore, err)
	}
	return nil
}

func (vs *PGVectorStore) Search(ctx context.Context, vector []float32, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = vs.config.SearchLimit
	}

	query := fmt.Sprintf(`
		SELECT id, url, text, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vs.table)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query points: %v", ErrStore, err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var (
			hit   models.SearchHit
			score float64
		)
		if err := rows.Scan(&hit.ID, &hit.URL, &hit.Text, &score); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %v", ErrStore, err)
		}
		hit.Score = float32(score)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	return hits, nil
}

func (vs *PGVectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

// sanitizeUTF8 drops invalid byte sequences, which Postgres rejects in TEXT.
func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
