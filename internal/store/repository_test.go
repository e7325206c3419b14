package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leadlag/internal/contracts"
)

// testPool connects to the database named by TEST_DATABASE_URL. These
// tests need a live PostgreSQL and are skipped in short mode.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(context.Background(), pool))
	return pool
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestObservationRepository_RoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := NewObservationRepository(pool)
	ctx := context.Background()

	name := "test_series_roundtrip"
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM leadlag.observations WHERE series_name = $1`, name)
	})

	series := contracts.NewTimeSeries(name,
		[]time.Time{day(2026, 1, 1), day(2026, 1, 2), day(2026, 1, 3)},
		[]float64{1.5, 2.5, 3.5})
	require.NoError(t, repo.SaveSeries(ctx, series))

	loaded, err := repo.GetSeries(ctx, name, day(2026, 1, 1), day(2026, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())

	v, ok := loaded.Get(day(2026, 1, 2))
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	// Re-saving a day overwrites it
	update := contracts.NewTimeSeries(name, []time.Time{day(2026, 1, 2)}, []float64{9.9})
	require.NoError(t, repo.SaveSeries(ctx, update))

	loaded, err = repo.GetSeries(ctx, name, day(2026, 1, 2), day(2026, 1, 2))
	require.NoError(t, err)
	v, _ = loaded.Get(day(2026, 1, 2))
	assert.Equal(t, 9.9, v)
}

func TestObservationRepository_ListSeries(t *testing.T) {
	pool := testPool(t)
	repo := NewObservationRepository(pool)
	ctx := context.Background()

	name := "test_series_coverage"
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM leadlag.observations WHERE series_name = $1`, name)
	})

	series := contracts.NewTimeSeries(name,
		[]time.Time{day(2026, 2, 1), day(2026, 2, 5)},
		[]float64{1, 2})
	require.NoError(t, repo.SaveSeries(ctx, series))

	coverage, err := repo.ListSeries(ctx)
	require.NoError(t, err)

	var found *contracts.SeriesCoverage
	for i := range coverage {
		if coverage[i].Name == name {
			found = &coverage[i]
		}
	}
	require.NotNil(t, found, "saved series should appear in coverage")
	assert.Equal(t, 2, found.Count)
	assert.Equal(t, day(2026, 2, 1), found.First.UTC())
	assert.Equal(t, day(2026, 2, 5), found.Last.UTC())
}

func TestScanRepository_RoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := NewScanRepository(pool)
	ctx := context.Background()

	result := &contracts.ScanResult{
		Start:       day(2026, 1, 1),
		End:         day(2026, 6, 30),
		SeriesCount: 3,
		DataPoints:  180,
		MaxLag:      5,
		TopN:        2,
		All: []contracts.LagCorrelation{
			{LeadSeries: "a", LagSeries: "b", Lag: 3, Correlation: 0.9, SampleSize: 177},
			{LeadSeries: "b", LagSeries: "a", Lag: -3, Correlation: 0.9, SampleSize: 177},
			{LeadSeries: "a", LagSeries: "c", Lag: 1, Correlation: 0.2, SampleSize: 179},
		},
		Top: []contracts.RankedRelationship{
			{
				LagCorrelation: contracts.LagCorrelation{LeadSeries: "a", LagSeries: "b", Lag: 3, Correlation: 0.9, SampleSize: 177},
				Significance:   1.1,
				Rank:           1,
			},
		},
		Composite: contracts.NewTimeSeries("composite",
			[]time.Time{day(2026, 1, 4), day(2026, 1, 5)},
			[]float64{-0.5, 0.5}),
		Duration: 1200 * time.Millisecond,
	}

	scanID, err := repo.SaveResult(ctx, result)
	require.NoError(t, err)
	require.Positive(t, scanID)

	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM leadlag.scan_results WHERE id = $1`, scanID)
	})

	loaded, err := repo.GetLatestResult(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, loaded.SeriesCount)
	assert.Equal(t, 180, loaded.DataPoints)
	assert.Len(t, loaded.All, 3)
	require.Len(t, loaded.Top, 1)
	assert.Equal(t, "a", loaded.Top[0].LeadSeries)
	assert.Equal(t, 3, loaded.Top[0].Lag)
	assert.Equal(t, 1.1, loaded.Top[0].Significance)
	assert.Equal(t, 2, loaded.Composite.Len())
	assert.Equal(t, 1200*time.Millisecond, loaded.Duration)
}
