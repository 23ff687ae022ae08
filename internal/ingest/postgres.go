package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createWideTable = `
CREATE TABLE IF NOT EXISTS survey_wide_v1 (
	id BIGSERIAL PRIMARY KEY,
	row_json JSONB NOT NULL,
	resp_id TEXT,
	version_tag TEXT,
	time_total_ms BIGINT,
	order_vector TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSink inserts each row as JSONB into survey_wide_v1 with a few
// columns extracted for querying.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to dsn and makes sure the table exists.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createWideTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create survey_wide_v1: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

// Append inserts one row into survey_wide_v1.
func (s *PostgresSink) Append(ctx context.Context, _ []string, row map[string]any) error {
	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO survey_wide_v1 (row_json, resp_id, version_tag, time_total_ms, order_vector)
		VALUES ($1::jsonb, $2, $3, $4, $5)
	`, string(raw), textOrNil(row["resp_id"]), textOrNil(row["version_tag"]),
		int64OrNil(row["time_total_ms"]), textOrNil(row["order_vector"]))
	if err != nil {
		return fmt.Errorf("failed to insert wide row: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresSink) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func textOrNil(v any) *string {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return &s
}

func int64OrNil(v any) *int64 {
	var n int64
	switch t := v.(type) {
	case float64:
		n = int64(t)
	case int64:
		n = t
	case int:
		n = int64(t)
	case string:
		parsed, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}
