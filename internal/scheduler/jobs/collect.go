package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/internal/fetch"
	"github.com/wonny/leadlag/pkg/config"
	"github.com/wonny/leadlag/pkg/logger"
)

// CollectJob tops up every configured series daily
// ⭐ SSOT: 시리즈 수집 스케줄은 이 Job에서만
type CollectJob struct {
	collector *fetch.Collector
	sources   *fetch.SourcesFile
	config    *config.Config
	logger    *logger.Logger
}

// NewCollectJob creates a new collection job
func NewCollectJob(collector *fetch.Collector, sources *fetch.SourcesFile, cfg *config.Config, log *logger.Logger) *CollectJob {
	return &CollectJob{
		collector: collector,
		sources:   sources,
		config:    cfg,
		logger:    log,
	}
}

// Name returns the job name
func (j *CollectJob) Name() string {
	return "series_collection"
}

// Schedule returns the cron schedule (00:30 UTC daily, after the
// previous UTC day has closed on every source)
func (j *CollectJob) Schedule() string {
	return "0 30 0 * * *"
}

// Run fetches the last week of every series, healing short outages
func (j *CollectJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled series collection")

	to := contracts.Day(time.Now().UTC())
	from := to.AddDate(0, 0, -7)

	_, results, err := j.collector.FetchAll(ctx, j.sources.Series, from, to, fetch.Config{
		Workers: j.config.Scan.Workers,
		Persist: true,
	})
	if err != nil {
		return fmt.Errorf("collect series: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	if failed == len(results) {
		return fmt.Errorf("every series failed to collect")
	}

	j.logger.WithFields(map[string]interface{}{
		"success": len(results) - failed,
		"failed":  failed,
	}).Info("Scheduled series collection completed")

	return nil
}
