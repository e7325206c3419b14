package main

import (
	"os"

	"github.com/wonny/leadlag/cmd/leadlag/commands"
)

// main is the entry point for the leadlag CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/leadlag [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
