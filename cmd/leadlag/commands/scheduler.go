package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/leadlag/internal/fetch/binance"
	"github.com/wonny/leadlag/internal/scheduler"
	"github.com/wonny/leadlag/internal/scheduler/jobs"
	"github.com/wonny/leadlag/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 시작",
	Long: `스케줄러 데몬을 시작하고 일별 작업을 등록합니다.

등록되는 작업:
- series_collection: 매일 00:30 UTC (최근 1주 시리즈 보충)
- daily_scan:        매일 01:00 UTC (스캔 실행 및 저장)

redis가 활성화되어 있으면 Binance 실시간 종가 스트림도 함께 실행됩니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.

Example:
  go run ./cmd/leadlag scheduler
  go run ./cmd/leadlag scheduler --run-now daily_scan`,
	RunE: runScheduler,
}

var schedulerRunNow string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&schedulerRunNow, "run-now", "", "시작 직후 즉시 실행할 작업 이름")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Lead-Lag Scheduler ===")

	ctx := cmd.Context()

	rt, err := buildRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close()

	sched := scheduler.New(rt.logger)

	collectJob := jobs.NewCollectJob(rt.collector, rt.sources, rt.cfg, rt.logger)
	scanJob := jobs.NewScanJob(rt.service, rt.logger)

	for _, job := range []scheduler.Job{collectJob, scanJob} {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register job: %w", err)
		}
	}

	// Stream live closes so the target stays current between the jobs
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

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow != "" {
		if err := sched.RunJob(schedulerRunNow); err != nil {
			return err
		}
	}

	for _, st := range sched.GetJobStats() {
		fmt.Printf("  • %-20s %s\n", st.JobName, st.Schedule)
	}
	fmt.Println("\nScheduler running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	rt.logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	if feed != nil {
		feed.Stop()
	}
	return nil
}
