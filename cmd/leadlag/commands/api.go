package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/leadlag/internal/api"
	"github.com/wonny/leadlag/internal/api/handlers"
	"github.com/wonny/leadlag/internal/fetch/binance"
	"github.com/wonny/leadlag/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health              - Health check
  GET  /metrics             - Prometheus metrics
  POST /api/scan            - 스캔 트리거
  GET  /api/scan/latest     - 최근 스캔 결과 조회
  POST /api/series/collect  - 시리즈 수집 트리거
  GET  /api/series          - 저장된 시리즈 커버리지 조회

Example:
  go run ./cmd/leadlag api
  go run ./cmd/leadlag api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Lead-Lag API Server ===")

	ctx := cmd.Context()

	rt, err := buildRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close()

	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	scanHandler := handlers.NewScanHandler(rt.service, rt.scanRepo, rt.logger)
	seriesHandler := handlers.NewSeriesHandler(rt.collector, rt.sources, rt.obsRepo, rt.cfg.Scan.Workers, rt.logger)

	router := api.NewRouter(scanHandler, seriesHandler, rt.metrics, rt.logger)
	server := api.New(rt.cfg, rt.logger, router)

	// Stream live closes for binance symbols while the server runs
	feedCtx, cancelFeed := context.WithCancel(ctx)
	defer cancelFeed()

	var feed *binance.Feed
	if symbols := rt.binanceSymbols(); len(symbols) > 0 && rt.redis.Enabled() {
		feed = binance.NewFeed(rt.cfg.Binance, redis.NewCache(rt.redis, "leadlag"), rt.logger, symbols)
		if err := feed.Start(feedCtx); err != nil {
			rt.logger.WithError(err).Warn("Live price feed unavailable")
			feed = nil
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		rt.logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	if feed != nil {
		feed.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
