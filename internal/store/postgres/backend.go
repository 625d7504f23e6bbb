// Package postgres persists store buckets in a Postgres JSONB table.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/printdesk/printdesk/internal/platform/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Backend stores one row per bucket in printdesk_state.
type Backend struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres and applies migrations.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	pool, err := db.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Backend{pool: pool}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("store/postgres: migrations fs: %w", err)
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() { _ = sqlDB.Close() }()
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("store/postgres: migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("store/postgres: migrate up: %w", err)
	}
	return nil
}

// Load reads every bucket.
func (b *Backend) Load(ctx context.Context) (map[string][]byte, error) {
	rows, err := b.pool.Query(ctx, `SELECT bucket, payload::text FROM printdesk_state`)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: select state: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]byte)
	for rows.Next() {
		var bucket, payload string
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("store/postgres: scan: %w", err)
		}
		out[bucket] = []byte(payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store/postgres: rows: %w", err)
	}
	return out, nil
}

// Save upserts the buckets in one repeatable-read transaction.
func (b *Backend) Save(ctx context.Context, buckets map[string][]byte) error {
	return db.WithTx(ctx, b.pool, func(tx pgx.Tx) error {
		for bucket, payload := range buckets {
			if _, err := tx.Exec(ctx,
				`INSERT INTO printdesk_state (bucket, payload, updated_at) VALUES ($1, $2::jsonb, now())
				 ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
				bucket, string(payload)); err != nil {
				return fmt.Errorf("store/postgres: upsert %s: %w", bucket, err)
			}
		}
		return nil
	})
}

// Close closes the pool.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}
