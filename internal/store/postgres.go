package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/quotagate/internal/ratelimit"
)

const createQuotaRecordsTable = `
	CREATE TABLE IF NOT EXISTS quota_records (
		key     TEXT PRIMARY KEY,
		value   BYTEA NOT NULL,
		version BIGINT NOT NULL
	)
`

// PostgresKV is a PostgreSQL implementation of ratelimit.Store.
// Every row carries a version column that conditional writes compare against.
type PostgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV creates a new PostgreSQL-backed shared state store.
func NewPostgresKV(pool *pgxpool.Pool) *PostgresKV {
	return &PostgresKV{pool: pool}
}

// Migrate creates the records table if it does not exist.
func (p *PostgresKV) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createQuotaRecordsTable); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}

	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, ratelimit.Version, error) {
	query := `
		SELECT value, version
		FROM quota_records
		WHERE key = $1
	`

	var (
		value   []byte
		version int64
	)

	err := p.pool.QueryRow(ctx, query, key).Scan(&value, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ratelimit.NoVersion, nil
		}

		return nil, ratelimit.NoVersion, fmt.Errorf("postgres: get %q: %w", key, err)
	}

	return value, ratelimit.Version(version), nil
}

func (p *PostgresKV) CompareAndSet(ctx context.Context, key string, value []byte, expected ratelimit.Version) error {
	query := `
		UPDATE quota_records
		SET value = $2, version = version + 1
		WHERE key = $1 AND version = $3
	`
	args := []any{key, value, int64(expected)}

	if expected == ratelimit.NoVersion {
		query = `
			INSERT INTO quota_records (key, value, version)
			VALUES ($1, $2, 1)
			ON CONFLICT (key) DO NOTHING
		`
		args = args[:2]
	}

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: compare and set %q: %w", key, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: %q: %w", key, ratelimit.ErrVersionConflict)
	}

	return nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO quota_records (key, value, version)
		VALUES ($1, $2, 1)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, version = quota_records.version + 1
	`

	if _, err := p.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("postgres: set %q: %w", key, err)
	}

	return nil
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresKV) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresKV) Shutdown() error {
	p.pool.Close()

	return nil
}

// Compile-time check.
var _ ratelimit.Store = (*PostgresKV)(nil)
