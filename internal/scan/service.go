package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/internal/fetch"
	"github.com/wonny/leadlag/pkg/config"
	"github.com/wonny/leadlag/pkg/logger"
)

// Service runs the full scan flow: collect every configured series,
// scan them against the target, optionally persist the result. The API,
// scheduler, and CLI all go through here.
// ⭐ SSOT: 스캔 실행 플로우는 이 서비스에서만
type Service struct {
	sources   *fetch.SourcesFile
	collector *fetch.Collector
	scanner   contracts.Scanner
	scanRepo  contracts.ScanRepository
	cfg       config.ScanConfig
	logger    *logger.Logger
}

// NewService creates a scan service. The scan repository may be nil for
// ad-hoc runs that never persist.
func NewService(
	sources *fetch.SourcesFile,
	collector *fetch.Collector,
	scanner contracts.Scanner,
	scanRepo contracts.ScanRepository,
	cfg config.ScanConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		sources:   sources,
		collector: collector,
		scanner:   scanner,
		scanRepo:  scanRepo,
		cfg:       cfg,
		logger:    log.WithField("module", "scan"),
	}
}

// RunOptions controls one scan run
type RunOptions struct {
	From    time.Time // zero: now minus the configured lookback
	To      time.Time // zero: today
	Persist bool      // save observations and the scan result
}

// Target returns the configured target series name
func (s *Service) Target() string {
	return s.sources.Target
}

// Run collects, scans, and optionally persists. Individual series
// failures are tolerated; the scan proceeds over what arrived.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*contracts.ScanResult, error) {
	to := opts.To
	if to.IsZero() {
		to = contracts.Day(time.Now().UTC())
	}
	from := opts.From
	if from.IsZero() {
		from = to.AddDate(0, 0, -s.cfg.LookbackDays)
	}

	collected, results, err := s.collector.FetchAll(ctx, s.sources.Series, from, to, fetch.Config{
		Workers: s.cfg.Workers,
		Persist: opts.Persist,
	})
	if err != nil {
		return nil, fmt.Errorf("collect series: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			s.logger.WithError(r.Error).WithField("series", r.Name).Warn("Series skipped for this scan")
		}
	}

	if _, ok := collected[s.sources.Target]; !ok {
		return nil, fmt.Errorf("target series %q could not be collected", s.sources.Target)
	}

	result, err := s.scanner.Scan(ctx, collected, s.sources.Target, s.cfg.MaxLag, s.cfg.TopN)
	if err != nil {
		return nil, err
	}

	if opts.Persist && s.scanRepo != nil {
		scanID, err := s.scanRepo.SaveResult(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("save scan result: %w", err)
		}
		s.logger.WithField("scan_id", scanID).Info("Scan result saved")
	}

	return result, nil
}
