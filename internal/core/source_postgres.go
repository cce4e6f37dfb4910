package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads the most recently stored dataset document from a table
// shaped as (payload jsonb, loaded_at timestamptz). The table is only read.
type PostgresSource struct {
	pool  *pgxpool.Pool
	query string
}

// NewPostgresSource creates a source reading from table.
func NewPostgresSource(pool *pgxpool.Pool, table string) *PostgresSource {
	return &PostgresSource{
		pool: pool,
		query: fmt.Sprintf(
			"SELECT payload FROM %s ORDER BY loaded_at DESC LIMIT 1",
			pgx.Identifier{table}.Sanitize(),
		),
	}
}

func (s *PostgresSource) Name() string { return "postgres" }

// Fetch implements Source. An empty table reports ErrDatasetNotFound.
func (s *PostgresSource) Fetch(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, s.query).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no stored dataset", ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	return payload, nil
}
