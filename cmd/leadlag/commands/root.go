package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "leadlag",
	Short: "Lead-lag 상관관계 스캐너",
	Long: `Lead-lag correlation scanner

일별 금융 시계열들 사이의 선행-지연(lead-lag) 관계를 탐색하고,
상위 관계들을 합성 시그널로 결합합니다.

Usage:
  go run ./cmd/leadlag [command]

Examples:
  go run ./cmd/leadlag scan
  go run ./cmd/leadlag fetch
  go run ./cmd/leadlag api
  go run ./cmd/leadlag scheduler
  go run ./cmd/leadlag status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
