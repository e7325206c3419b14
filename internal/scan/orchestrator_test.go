package scan

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/config"
	"github.com/wonny/leadlag/pkg/logger"
)

func newTestOrchestrator() *Orchestrator {
	cfg := config.ScanConfig{
		MaxFillDays: 7,
		MinOverlap:  10,
		MinSamples:  10,
		Workers:     4,
	}
	return FromConfig(cfg, nil, logger.NewNop())
}

func TestOrchestrator_EndToEnd(t *testing.T) {
	// A clean sinusoid driving its own 3-day-delayed copy must survive the
	// whole pipeline: alignment, ranking, composite, bundling.
	start := day(2026, 1, 1)
	n := 120
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = math.Sin(2 * math.Pi * float64(i) / 30)
		y[i] = math.Sin(2 * math.Pi * float64(i-3) / 30)
	}

	raw := map[string]contracts.TimeSeries{
		"driver": dailySeries("driver", start, x),
		"BTCUSD": dailySeries("BTCUSD", start, y),
	}

	result, err := newTestOrchestrator().Scan(context.Background(), raw, "BTCUSD", 5, 1)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	if result.SeriesCount != 2 {
		t.Errorf("series count = %d, want 2", result.SeriesCount)
	}
	if result.DataPoints != n {
		t.Errorf("data points = %d, want %d", result.DataPoints, n)
	}
	if !result.Start.Equal(start) {
		t.Errorf("start = %s, want %s", result.Start, start)
	}
	if !result.End.Equal(start.AddDate(0, 0, n-1)) {
		t.Errorf("end = %s, want %s", result.End, start.AddDate(0, 0, n-1))
	}

	if !result.HasRelationships() {
		t.Fatal("scan should discover the shifted pair")
	}
	best := result.Top[0]
	if abs(best.Lag) != 3 {
		t.Errorf("best lag = %d, want |lag| = 3", best.Lag)
	}
	if math.Abs(best.Correlation) < 0.999 {
		t.Errorf("best correlation = %v, want ~1.0", best.Correlation)
	}
	if result.Composite.IsEmpty() {
		t.Error("composite should be built for a non-empty top")
	}
	if result.Duration <= 0 {
		t.Error("duration should be recorded")
	}
}

func TestOrchestrator_InvalidParameters(t *testing.T) {
	start := day(2026, 1, 1)
	raw := map[string]contracts.TimeSeries{
		"a":      dailySeries("a", start, rising(30)),
		"target": dailySeries("target", start, rising(30)),
	}

	for _, tt := range []struct {
		name   string
		maxLag int
		topN   int
	}{
		{name: "zero max_lag", maxLag: 0, topN: 1},
		{name: "negative top_n", maxLag: 5, topN: -1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestOrchestrator().Scan(context.Background(), raw, "target", tt.maxLag, tt.topN)
			var scanErr *contracts.ScanError
			if !errors.As(err, &scanErr) {
				t.Fatalf("error type = %T, want *ScanError", err)
			}
			if scanErr.Stage != contracts.StageReceived {
				t.Errorf("stage = %s, want %s", scanErr.Stage, contracts.StageReceived)
			}
		})
	}
}

func TestOrchestrator_AlignmentFailureAborts(t *testing.T) {
	start := day(2026, 1, 1)
	raw := map[string]contracts.TimeSeries{
		"a": dailySeries("a", start, rising(30)),
	}

	_, err := newTestOrchestrator().Scan(context.Background(), raw, "missing", 5, 1)

	var scanErr *contracts.ScanError
	if !errors.As(err, &scanErr) {
		t.Fatalf("error type = %T, want *ScanError", err)
	}
	if scanErr.Stage != contracts.StageAligned {
		t.Errorf("stage = %s, want %s", scanErr.Stage, contracts.StageAligned)
	}
	var alignErr *contracts.AlignmentError
	if !errors.As(err, &alignErr) {
		t.Errorf("wrapped error should unwrap to *AlignmentError, got %v", err)
	}
}

func TestOrchestrator_EmptyOutcomeIsSuccess(t *testing.T) {
	// Series long enough to align but too short for the sample floor at
	// any lag: the scan completes with an empty top, not an error.
	cfg := config.ScanConfig{
		MaxFillDays: 7,
		MinOverlap:  10,
		MinSamples:  20,
		Workers:     2,
	}
	orchestrator := FromConfig(cfg, nil, logger.NewNop())

	start := day(2026, 1, 1)
	raw := map[string]contracts.TimeSeries{
		"a":      dailySeries("a", start, []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8}),
		"target": dailySeries("target", start, rising(12)),
	}

	result, err := orchestrator.Scan(context.Background(), raw, "target", 5, 2)
	if err != nil {
		t.Fatalf("empty scan should not error, got %v", err)
	}
	if result.HasRelationships() {
		t.Error("no relationship should pass a 20-sample floor on 12 points")
	}
	if !result.Composite.IsEmpty() {
		t.Error("composite should be empty when top is empty")
	}
}

func TestOrchestrator_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := day(2026, 1, 1)
	raw := map[string]contracts.TimeSeries{
		"a":      dailySeries("a", start, rising(30)),
		"target": dailySeries("target", start, rising(30)),
	}

	_, err := newTestOrchestrator().Scan(ctx, raw, "target", 5, 1)

	var scanErr *contracts.ScanError
	if !errors.As(err, &scanErr) {
		t.Fatalf("error type = %T, want *ScanError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
}
