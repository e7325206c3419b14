package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/config"
	"github.com/wonny/leadlag/pkg/logger"
	"github.com/wonny/leadlag/pkg/metrics"
)

// Orchestrator sequences the scan pipeline over one frozen input set:
// Received -> Aligned -> Ranked -> Composited -> Bundled. A stage failure
// aborts the remaining stages; no partial result is returned.
// ⭐ SSOT: 스캔 파이프라인 순서는 여기서만
type Orchestrator struct {
	aligner   *Aligner
	ranker    *Ranker
	composite *CompositeBuilder
	metrics   *metrics.Recorder
	logger    *logger.Logger
}

// NewOrchestrator creates an orchestrator from its stage components
func NewOrchestrator(aligner *Aligner, ranker *Ranker, composite *CompositeBuilder, rec *metrics.Recorder, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		aligner:   aligner,
		ranker:    ranker,
		composite: composite,
		metrics:   rec,
		logger:    log,
	}
}

// FromConfig wires the full pipeline from scan configuration
func FromConfig(cfg config.ScanConfig, rec *metrics.Recorder, log *logger.Logger) *Orchestrator {
	correlator := NewCorrelator(cfg.MinSamples, log)
	return NewOrchestrator(
		NewAligner(cfg.MaxFillDays, cfg.MinOverlap, log),
		NewRanker(correlator, cfg.Workers, log),
		NewCompositeBuilder(log),
		rec,
		log,
	)
}

// Scan runs one full scan. Every call is independent and reentrant; the
// raw series map is treated as frozen input and never mutated.
func (o *Orchestrator) Scan(ctx context.Context, raw map[string]contracts.TimeSeries, target string, maxLag, topN int) (*contracts.ScanResult, error) {
	started := time.Now()

	// Received
	if maxLag <= 0 {
		return nil, o.fail(started, contracts.StageReceived, fmt.Errorf("max_lag must be positive, got %d", maxLag))
	}
	if topN <= 0 {
		return nil, o.fail(started, contracts.StageReceived, fmt.Errorf("top_n must be positive, got %d", topN))
	}

	o.logger.WithFields(map[string]interface{}{
		"series":  len(raw),
		"target":  target,
		"max_lag": maxLag,
		"top_n":   topN,
	}).Info("Starting lead-lag scan")

	// Aligned
	table, err := o.aligner.Align(raw, target)
	if err != nil {
		return nil, o.fail(started, contracts.StageAligned, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, o.fail(started, contracts.StageAligned, err)
	}

	// Ranked
	all, top, err := o.ranker.Rank(table, maxLag, topN)
	if err != nil {
		return nil, o.fail(started, contracts.StageRanked, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, o.fail(started, contracts.StageRanked, err)
	}

	// Composited
	composite := o.composite.Build(table, top)

	// Bundled
	result := &contracts.ScanResult{
		Start:       table.Dates[0],
		End:         table.Dates[len(table.Dates)-1],
		SeriesCount: len(table.Columns),
		DataPoints:  table.Len(),
		MaxLag:      maxLag,
		TopN:        topN,
		All:         all,
		Top:         top,
		Composite:   composite,
		Duration:    time.Since(started),
	}

	outcome := "ok"
	if !result.HasRelationships() {
		outcome = "empty"
	}
	if o.metrics != nil {
		o.metrics.RecordScan(outcome, result.Duration.Seconds())
	}

	o.logger.WithFields(map[string]interface{}{
		"relationships": len(all),
		"top":           len(top),
		"data_points":   result.DataPoints,
		"duration":      result.Duration,
		"outcome":       outcome,
	}).Info("Scan completed")

	return result, nil
}

// fail records a failed scan and wraps the stage error
func (o *Orchestrator) fail(started time.Time, stage string, err error) error {
	if o.metrics != nil {
		o.metrics.RecordScan("failed", time.Since(started).Seconds())
	}
	o.logger.WithError(err).WithField("stage", stage).Error("Scan aborted")
	return &contracts.ScanError{Stage: stage, Err: err}
}
