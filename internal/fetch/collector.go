package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/logger"
	"github.com/wonny/leadlag/pkg/metrics"
)

// Collector fans series fetching out over a worker pool. One series
// failing never aborts the batch; the failure is carried in its result.
// ⭐ SSOT: 시리즈 수집 오케스트레이션은 이 타입에서만
type Collector struct {
	fetcher contracts.Fetcher
	repo    contracts.ObservationRepository
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int
	Persist bool
}

// NewCollector creates a collector. The repository may be nil when
// persistence is not wanted (ad-hoc CLI scans).
func NewCollector(fetcher contracts.Fetcher, repo contracts.ObservationRepository, rec *metrics.Recorder, log *logger.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		repo:    repo,
		metrics: rec,
		logger:  log.WithField("module", "collector"),
	}
}

// Result is the outcome of fetching one series
type Result struct {
	Name   string
	Series contracts.TimeSeries
	Error  error
}

// FetchAll fetches every configured series concurrently and returns the
// successful ones keyed by name, plus per-series results for reporting.
func (c *Collector) FetchAll(ctx context.Context, specs []contracts.SeriesSpec, from, to time.Time, cfg Config) (map[string]contracts.TimeSeries, []Result, error) {
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("no series to collect")
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"series":  len(specs),
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"workers": workers,
	}).Info("Starting series collection")

	specCh := make(chan contracts.SeriesSpec, len(specs))
	resultCh := make(chan Result, len(specs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.worker(ctx, workerID, specCh, resultCh, from, to, cfg.Persist)
		}(i)
	}

	for _, spec := range specs {
		specCh <- spec
	}
	close(specCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	collected := make(map[string]contracts.TimeSeries)
	results := make([]Result, 0, len(specs))
	failCount := 0
	for result := range resultCh {
		results = append(results, result)
		if result.Error != nil {
			failCount++
			continue
		}
		collected[result.Name] = result.Series
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(collected),
		"failed":  failCount,
		"total":   len(results),
	}).Info("Series collection completed")

	return collected, results, nil
}

// worker processes series specs until the channel drains
func (c *Collector) worker(ctx context.Context, workerID int, specCh <-chan contracts.SeriesSpec, resultCh chan<- Result, from, to time.Time, persist bool) {
	for spec := range specCh {
		select {
		case <-ctx.Done():
			resultCh <- Result{Name: spec.Name, Error: ctx.Err()}
			return
		default:
		}

		series, err := c.fetcher.Fetch(ctx, spec, from, to)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"series": spec.Name,
				"source": spec.Source,
			}).Error("Failed to fetch series")
			if c.metrics != nil {
				c.metrics.RecordFetchError(string(spec.Source))
			}
			resultCh <- Result{Name: spec.Name, Error: err}
			continue
		}

		if series.IsEmpty() {
			c.logger.WithFields(map[string]interface{}{
				"worker": workerID,
				"series": spec.Name,
			}).Warn("Source returned empty series")
			resultCh <- Result{Name: spec.Name, Error: fmt.Errorf("source returned no observations for %s", spec.Name)}
			continue
		}

		if persist && c.repo != nil {
			if err := c.repo.SaveSeries(ctx, series); err != nil {
				c.logger.WithError(err).WithFields(map[string]interface{}{
					"worker": workerID,
					"series": spec.Name,
				}).Error("Failed to save series")
				resultCh <- Result{Name: spec.Name, Series: series, Error: err}
				continue
			}
		}

		if c.metrics != nil {
			c.metrics.RecordSeriesFetched(string(spec.Source))
		}

		c.logger.WithFields(map[string]interface{}{
			"worker": workerID,
			"series": spec.Name,
			"count":  series.Len(),
		}).Debug("Fetched series")

		resultCh <- Result{Name: spec.Name, Series: series}
	}
}
