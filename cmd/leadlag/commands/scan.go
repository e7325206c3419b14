package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/leadlag/internal/scan"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Lead-lag 스캔 실행",
	Long: `설정된 모든 시리즈를 수집하고 lead-lag 스캔을 실행합니다.

이 명령어는:
- data_sources.yaml의 모든 시리즈 수집
- 타깃 시리즈 대비 교차상관 스캔
- 상위 관계로 합성 시그널 생성

Example:
  go run ./cmd/leadlag scan
  go run ./cmd/leadlag scan --from 2025-01-01 --to 2025-12-31
  go run ./cmd/leadlag scan --persist`,
	RunE: runScan,
}

var (
	scanFrom    string
	scanTo      string
	scanPersist bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanFrom, "from", "", "수집 구간 시작 (YYYY-MM-DD, 기본: lookback)")
	scanCmd.Flags().StringVar(&scanTo, "to", "", "수집 구간 끝 (YYYY-MM-DD, 기본: 오늘)")
	scanCmd.Flags().BoolVar(&scanPersist, "persist", false, "관측치와 스캔 결과를 DB에 저장")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Lead-Lag Scan ===")

	ctx := cmd.Context()

	rt, err := buildRuntime(ctx, scanPersist)
	if err != nil {
		return err
	}
	defer rt.close()

	opts := scan.RunOptions{Persist: scanPersist}
	if opts.From, err = parseDateFlag(scanFrom, "from"); err != nil {
		return err
	}
	if opts.To, err = parseDateFlag(scanTo, "to"); err != nil {
		return err
	}

	result, err := rt.service.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	PrintScanResult(result)
	return nil
}
