package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/leadlag/internal/contracts"
)

// ObservationRepository implements contracts.ObservationRepository
// ⭐ SSOT: 관측치 저장/조회는 여기서만
type ObservationRepository struct {
	pool *pgxpool.Pool
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(pool *pgxpool.Pool) *ObservationRepository {
	return &ObservationRepository{pool: pool}
}

// SaveSeries upserts every observation of a series in one batch. A
// re-fetched day overwrites the stored value.
func (r *ObservationRepository) SaveSeries(ctx context.Context, series contracts.TimeSeries) error {
	if series.Name == "" {
		return fmt.Errorf("series has no name")
	}
	if series.IsEmpty() {
		return nil
	}

	query := `
		INSERT INTO leadlag.observations (series_name, obs_date, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (series_name, obs_date)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, obs := range series.Observations {
		batch.Queue(query, series.Name, obs.Date, obs.Value)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range series.Observations {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save observations for %s: %w", series.Name, err)
		}
	}
	return nil
}

// GetSeries loads one series within a date window
func (r *ObservationRepository) GetSeries(ctx context.Context, name string, from, to time.Time) (contracts.TimeSeries, error) {
	query := `
		SELECT obs_date, value
		FROM leadlag.observations
		WHERE series_name = $1 AND obs_date BETWEEN $2 AND $3
		ORDER BY obs_date
	`

	rows, err := r.pool.Query(ctx, query, name, from, to)
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("failed to query observations for %s: %w", name, err)
	}
	defer rows.Close()

	var dates []time.Time
	var values []float64
	for rows.Next() {
		var date time.Time
		var value float64
		if err := rows.Scan(&date, &value); err != nil {
			return contracts.TimeSeries{}, fmt.Errorf("failed to scan observation: %w", err)
		}
		dates = append(dates, date)
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("error iterating observations: %w", err)
	}

	return contracts.NewTimeSeries(name, dates, values), nil
}

// ListSeries summarizes coverage per stored series
func (r *ObservationRepository) ListSeries(ctx context.Context) ([]contracts.SeriesCoverage, error) {
	query := `
		SELECT series_name, COUNT(*), MIN(obs_date), MAX(obs_date)
		FROM leadlag.observations
		GROUP BY series_name
		ORDER BY series_name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query series coverage: %w", err)
	}
	defer rows.Close()

	var coverage []contracts.SeriesCoverage
	for rows.Next() {
		var c contracts.SeriesCoverage
		if err := rows.Scan(&c.Name, &c.Count, &c.First, &c.Last); err != nil {
			return nil, fmt.Errorf("failed to scan coverage row: %w", err)
		}
		coverage = append(coverage, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coverage rows: %w", err)
	}

	return coverage, nil
}
