package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/leadlag/internal/fetch/binance"
	"github.com/wonny/leadlag/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "시스템 상태 조회",
	Long: `데이터베이스 연결, 저장된 시리즈 커버리지, 최근 스캔 결과를 조회합니다.

Example:
  go run ./cmd/leadlag status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Lead-Lag Status ===")

	ctx := cmd.Context()

	rt, err := buildRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close()

	PrintHeader("Connections")
	if err := rt.db.Ping(ctx); err != nil {
		fmt.Printf("  ✗ database: %v\n", err)
	} else {
		stats := rt.db.Stats()
		fmt.Printf("  ✓ database: %d/%d connections\n", stats.AcquiredConns, stats.MaxConns)
	}
	if rt.redis.Enabled() {
		fmt.Println("  ✓ redis: enabled")
	} else {
		fmt.Println("  - redis: disabled")
	}

	// Live closes cached by the streaming feed, when one is running
	if rt.redis.Enabled() {
		cache := redis.NewCache(rt.redis, "leadlag")
		for _, symbol := range rt.binanceSymbols() {
			if price, ok := binance.CachedClose(ctx, cache, symbol); ok {
				fmt.Printf("  ✓ live %-14s %.2f\n", symbol, price)
			}
		}
	}

	PrintHeader("Stored Series")
	coverage, err := rt.obsRepo.ListSeries(ctx)
	if err != nil {
		return fmt.Errorf("list series: %w", err)
	}
	if len(coverage) == 0 {
		fmt.Println("  (none — run `fetch` first)")
	}
	for _, c := range coverage {
		fmt.Printf("  %-20s %5d points  %s ~ %s\n",
			c.Name, c.Count, c.First.Format("2006-01-02"), c.Last.Format("2006-01-02"))
	}

	PrintHeader("Latest Scan")
	result, err := rt.scanRepo.GetLatestResult(ctx)
	if err != nil {
		fmt.Println("  (no scan results stored)")
		return nil
	}
	fmt.Println(result.Summary())

	return nil
}
