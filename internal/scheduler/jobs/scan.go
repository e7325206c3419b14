package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/leadlag/internal/scan"
	"github.com/wonny/leadlag/pkg/logger"
)

// ScanJob runs the daily lead-lag scan over the configured lookback
// ⭐ SSOT: 스캔 스케줄은 이 Job에서만
type ScanJob struct {
	service *scan.Service
	logger  *logger.Logger
}

// NewScanJob creates a new scan job
func NewScanJob(service *scan.Service, log *logger.Logger) *ScanJob {
	return &ScanJob{
		service: service,
		logger:  log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "daily_scan"
}

// Schedule returns the cron schedule (01:00 UTC daily, after the
// collection job has topped the series up)
func (j *ScanJob) Schedule() string {
	return "0 0 1 * * *"
}

// Run executes one persisted scan over the default lookback window
func (j *ScanJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled scan")

	result, err := j.service.Run(ctx, scan.RunOptions{Persist: true})
	if err != nil {
		return fmt.Errorf("scheduled scan: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"relationships": len(result.All),
		"top":           len(result.Top),
		"duration":      result.Duration,
	}).Info("Scheduled scan completed")

	return nil
}
