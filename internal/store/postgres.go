package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore backs datasets and the blob store with PostgreSQL. Rows are
// append-only inserts; blobs upsert by key so re-runs overwrite audit
// artifacts for the same capture label.
type PGStore struct {
	pool *pgxpool.Pool
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS dataset_items (
	id         BIGSERIAL PRIMARY KEY,
	dataset    TEXT NOT NULL,
	item       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS dataset_items_dataset_idx ON dataset_items (dataset);
CREATE TABLE IF NOT EXISTS kv_blobs (
	key          TEXT PRIMARY KEY,
	content_type TEXT,
	value        BYTEA NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// NewPGStore connects, verifies the connection and ensures the schema.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Dataset returns the named dataset view.
func (s *PGStore) Dataset(name string) Dataset {
	return &pgDataset{pool: s.pool, name: name}
}

// Set upserts one blob by key.
func (s *PGStore) Set(ctx context.Context, key string, value []byte, contentType string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO kv_blobs (key, content_type, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET content_type = $2, value = $3, updated_at = NOW()`,
		key, contentType, value,
	)
	if err != nil {
		return fmt.Errorf("failed to save blob %s: %w", key, err)
	}
	return nil
}

type pgDataset struct {
	pool *pgxpool.Pool
	name string
}

func (d *pgDataset) Name() string { return d.name }

func (d *pgDataset) Push(ctx context.Context, item map[string]any) error {
	jsonBytes, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset row: %w", err)
	}
	_, err = d.pool.Exec(ctx,
		`INSERT INTO dataset_items (dataset, item) VALUES ($1, $2)`,
		d.name, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to push to dataset %s: %w", d.name, err)
	}
	return nil
}

func (d *pgDataset) Count(ctx context.Context) (int, error) {
	var count int
	err := d.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM dataset_items WHERE dataset = $1`, d.name,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count dataset %s: %w", d.name, err)
	}
	return count, nil
}
