package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds every table the scanner persists to
// ⭐ SSOT: 스키마 정의는 여기서만
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS leadlag`,

	`CREATE TABLE IF NOT EXISTS leadlag.observations (
		series_name TEXT NOT NULL,
		obs_date    DATE NOT NULL,
		value       DOUBLE PRECISION NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (series_name, obs_date)
	)`,

	`CREATE TABLE IF NOT EXISTS leadlag.scan_results (
		id           BIGSERIAL PRIMARY KEY,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		window_start DATE NOT NULL,
		window_end   DATE NOT NULL,
		series_count INT NOT NULL,
		data_points  INT NOT NULL,
		max_lag      INT NOT NULL,
		top_n        INT NOT NULL,
		duration_ms  BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS leadlag.scan_relationships (
		scan_id      BIGINT NOT NULL REFERENCES leadlag.scan_results(id) ON DELETE CASCADE,
		lead_series  TEXT NOT NULL,
		lag_series   TEXT NOT NULL,
		lag_days     INT NOT NULL,
		correlation  DOUBLE PRECISION NOT NULL,
		sample_size  INT NOT NULL,
		significance DOUBLE PRECISION NOT NULL DEFAULT 0,
		rank         INT,
		PRIMARY KEY (scan_id, lead_series, lag_series)
	)`,

	`CREATE TABLE IF NOT EXISTS leadlag.scan_composite (
		scan_id  BIGINT NOT NULL REFERENCES leadlag.scan_results(id) ON DELETE CASCADE,
		obs_date DATE NOT NULL,
		value    DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (scan_id, obs_date)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_observations_date ON leadlag.observations (obs_date)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_results_created ON leadlag.scan_results (created_at DESC)`,
}

// Migrate creates the schema and tables when missing
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	}
	return nil
}
