package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/internal/fetch"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "시리즈 수집 및 저장",
	Long: `설정된 모든 시리즈를 수집하여 DB에 저장합니다.

Example:
  go run ./cmd/leadlag fetch
  go run ./cmd/leadlag fetch --from 2025-01-01`,
	RunE: runFetch,
}

var (
	fetchFrom string
	fetchTo   string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "수집 구간 시작 (YYYY-MM-DD, 기본: lookback)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "수집 구간 끝 (YYYY-MM-DD, 기본: 오늘)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Series Collection ===")

	ctx := cmd.Context()

	rt, err := buildRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close()

	to, err := parseDateFlag(fetchTo, "to")
	if err != nil {
		return err
	}
	if to.IsZero() {
		to = contracts.Day(time.Now().UTC())
	}
	from, err := parseDateFlag(fetchFrom, "from")
	if err != nil {
		return err
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -rt.cfg.Scan.LookbackDays)
	}

	started := time.Now()
	_, results, err := rt.collector.FetchAll(ctx, rt.sources.Series, from, to, fetch.Config{
		Workers: rt.cfg.Scan.Workers,
		Persist: true,
	})
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	PrintHeader(fmt.Sprintf("Collection %s ~ %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	PrintCollectResults(results, time.Since(started))
	return nil
}
