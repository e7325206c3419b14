package commands

import (
	"context"
	"fmt"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/internal/fetch"
	"github.com/wonny/leadlag/internal/fetch/binance"
	"github.com/wonny/leadlag/internal/fetch/fng"
	"github.com/wonny/leadlag/internal/fetch/fred"
	"github.com/wonny/leadlag/internal/fetch/trends"
	"github.com/wonny/leadlag/internal/fetch/yahoo"
	"github.com/wonny/leadlag/internal/scan"
	"github.com/wonny/leadlag/internal/store"
	"github.com/wonny/leadlag/pkg/config"
	"github.com/wonny/leadlag/pkg/database"
	"github.com/wonny/leadlag/pkg/httputil"
	"github.com/wonny/leadlag/pkg/logger"
	"github.com/wonny/leadlag/pkg/metrics"
	"github.com/wonny/leadlag/pkg/redis"
)

// runtime bundles everything a command needs. Commands share one wiring
// path so the stack is assembled identically everywhere.
// ⭐ SSOT: 의존성 조립은 이 파일에서만
type runtime struct {
	cfg     *config.Config
	logger  *logger.Logger
	db      *database.DB
	redis   *redis.Client
	metrics *metrics.Recorder

	sources   *fetch.SourcesFile
	registry  *fetch.Registry
	collector *fetch.Collector
	obsRepo   contracts.ObservationRepository
	scanRepo  contracts.ScanRepository
	service   *scan.Service
}

// buildRuntime loads config and wires the full stack. withDB controls
// whether a database connection is required; ad-hoc scans run without.
func buildRuntime(ctx context.Context, withDB bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	rt := &runtime{cfg: cfg, logger: log}

	if cfg.MetricsEnabled {
		rt.metrics = metrics.New()
	}

	if withDB {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		rt.db = db

		if err := store.Migrate(ctx, db.Pool); err != nil {
			db.Close()
			return nil, err
		}

		rt.obsRepo = store.NewObservationRepository(db.Pool)
		rt.scanRepo = store.NewScanRepository(db.Pool)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, caching disabled")
		redisClient = redis.Disabled()
	}
	rt.redis = redisClient
	cache := redis.NewCache(redisClient, "leadlag")

	sources, err := fetch.LoadSpecs(cfg.SeriesFile)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.sources = sources

	// Per-source HTTP clients carry the redis sliding-window limits so
	// concurrent processes share one budget per upstream.
	limiter := redis.NewRateLimiter(redisClient, "leadlag")
	binanceHTTP := httputil.New(cfg, log).WithRateLimiter(limiter, redis.BinanceRateLimit)
	fredHTTP := httputil.New(cfg, log).WithRateLimiter(limiter, redis.FREDRateLimit)
	trendsHTTP := httputil.New(cfg, log).WithRateLimiter(limiter, redis.TrendsRateLimit)

	binanceClient := binance.NewClient(cfg.Binance, binanceHTTP, log)
	fredClient := fred.NewClient(cfg.FRED, fredHTTP, log).WithGoldProxy(binanceClient)

	rt.registry = fetch.NewRegistry(
		binanceClient,
		yahoo.NewClient(httputil.New(cfg, log), log),
		fredClient,
		fng.NewClient(httputil.New(cfg, log), log),
		trends.NewClient(cfg.Trends, trendsHTTP, cache, log),
		log,
	)
	rt.collector = fetch.NewCollector(rt.registry, rt.obsRepo, rt.metrics, log)

	orchestrator := scan.FromConfig(cfg.Scan, rt.metrics, log)
	rt.service = scan.NewService(sources, rt.collector, orchestrator, rt.scanRepo, cfg.Scan, log)

	return rt, nil
}

// binanceSymbols lists the symbols of every binance-sourced series
func (rt *runtime) binanceSymbols() []string {
	var symbols []string
	for _, spec := range rt.sources.Series {
		if spec.Source == contracts.SourceBinance {
			symbols = append(symbols, spec.Symbol)
		}
	}
	return symbols
}

// close releases connections in reverse order of acquisition
func (rt *runtime) close() {
	if rt.redis != nil {
		rt.redis.Close()
	}
	if rt.db != nil {
		rt.db.Close()
	}
}
