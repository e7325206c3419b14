package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/leadlag/internal/contracts"
)

// ScanRepository implements contracts.ScanRepository
// ⭐ SSOT: 스캔 결과 저장/조회는 여기서만
type ScanRepository struct {
	pool *pgxpool.Pool
}

// NewScanRepository creates a new scan repository
func NewScanRepository(pool *pgxpool.Pool) *ScanRepository {
	return &ScanRepository{pool: pool}
}

// SaveResult persists one scan atomically: header, relationship
// population, and composite signal commit together or not at all.
func (r *ScanRepository) SaveResult(ctx context.Context, result *contracts.ScanResult) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var scanID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO leadlag.scan_results
			(window_start, window_end, series_count, data_points, max_lag, top_n, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, result.Start, result.End, result.SeriesCount, result.DataPoints,
		result.MaxLag, result.TopN, result.Duration.Milliseconds()).Scan(&scanID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan result: %w", err)
	}

	// Top entries overwrite their population rows with rank and
	// significance; the rest keep rank NULL.
	ranked := make(map[string]contracts.RankedRelationship, len(result.Top))
	for _, rel := range result.Top {
		ranked[rel.LeadSeries+"\x00"+rel.LagSeries] = rel
	}

	batch := &pgx.Batch{}
	relQuery := `
		INSERT INTO leadlag.scan_relationships
			(scan_id, lead_series, lag_series, lag_days, correlation, sample_size, significance, rank)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, c := range result.All {
		var rank *int
		significance := 0.0
		if rel, ok := ranked[c.LeadSeries+"\x00"+c.LagSeries]; ok {
			rank = &rel.Rank
			significance = rel.Significance
		}
		batch.Queue(relQuery, scanID, c.LeadSeries, c.LagSeries, c.Lag, c.Correlation, c.SampleSize, significance, rank)
	}

	compQuery := `
		INSERT INTO leadlag.scan_composite (scan_id, obs_date, value)
		VALUES ($1, $2, $3)
	`
	for _, obs := range result.Composite.Observations {
		batch.Queue(compQuery, scanID, obs.Date, obs.Value)
	}

	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return 0, fmt.Errorf("failed to insert scan detail: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return 0, fmt.Errorf("failed to close scan batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit scan result: %w", err)
	}
	return scanID, nil
}

// GetLatestResult loads the most recent scan, fully reassembled
func (r *ScanRepository) GetLatestResult(ctx context.Context) (*contracts.ScanResult, error) {
	var scanID int64
	var durationMs int64
	result := &contracts.ScanResult{}

	err := r.pool.QueryRow(ctx, `
		SELECT id, window_start, window_end, series_count, data_points, max_lag, top_n, duration_ms
		FROM leadlag.scan_results
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`).Scan(&scanID, &result.Start, &result.End, &result.SeriesCount,
		&result.DataPoints, &result.MaxLag, &result.TopN, &durationMs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no scan results stored")
		}
		return nil, fmt.Errorf("failed to query latest scan: %w", err)
	}
	result.Duration = time.Duration(durationMs) * time.Millisecond

	if err := r.loadRelationships(ctx, scanID, result); err != nil {
		return nil, err
	}
	if err := r.loadComposite(ctx, scanID, result); err != nil {
		return nil, err
	}
	return result, nil
}

// loadRelationships fills All and Top from the population rows
func (r *ScanRepository) loadRelationships(ctx context.Context, scanID int64, result *contracts.ScanResult) error {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_series, lag_series, lag_days, correlation, sample_size, significance, rank
		FROM leadlag.scan_relationships
		WHERE scan_id = $1
		ORDER BY lead_series, lag_series
	`, scanID)
	if err != nil {
		return fmt.Errorf("failed to query scan relationships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c contracts.LagCorrelation
		var significance float64
		var rank *int
		if err := rows.Scan(&c.LeadSeries, &c.LagSeries, &c.Lag, &c.Correlation, &c.SampleSize, &significance, &rank); err != nil {
			return fmt.Errorf("failed to scan relationship row: %w", err)
		}

		result.All = append(result.All, c)
		if rank != nil {
			result.Top = append(result.Top, contracts.RankedRelationship{
				LagCorrelation: c,
				Significance:   significance,
				Rank:           *rank,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating relationship rows: %w", err)
	}

	// Restore ranking order
	for i := 1; i < len(result.Top); i++ {
		for j := i; j > 0 && result.Top[j].Rank < result.Top[j-1].Rank; j-- {
			result.Top[j], result.Top[j-1] = result.Top[j-1], result.Top[j]
		}
	}
	return nil
}

// loadComposite fills the composite signal series
func (r *ScanRepository) loadComposite(ctx context.Context, scanID int64, result *contracts.ScanResult) error {
	rows, err := r.pool.Query(ctx, `
		SELECT obs_date, value
		FROM leadlag.scan_composite
		WHERE scan_id = $1
		ORDER BY obs_date
	`, scanID)
	if err != nil {
		return fmt.Errorf("failed to query composite: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	var values []float64
	for rows.Next() {
		var date time.Time
		var value float64
		if err := rows.Scan(&date, &value); err != nil {
			return fmt.Errorf("failed to scan composite row: %w", err)
		}
		dates = append(dates, date)
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating composite rows: %w", err)
	}

	result.Composite = contracts.NewTimeSeries("composite", dates, values)
	return nil
}
