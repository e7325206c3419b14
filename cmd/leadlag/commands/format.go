package commands

import (
	"fmt"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/internal/fetch"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a section header
func PrintHeader(title string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintScanResult prints a completed scan
func PrintScanResult(result *contracts.ScanResult) {
	PrintHeader("Scan Result")
	fmt.Printf("  Window    : %s ~ %s\n", result.Start.Format("2006-01-02"), result.End.Format("2006-01-02"))
	fmt.Printf("  Series    : %d (%d shared dates)\n", result.SeriesCount, result.DataPoints)
	fmt.Printf("  Window    : lag ±%d days, top %d\n", result.MaxLag, result.TopN)
	fmt.Printf("  Pairs     : %d scanned\n", len(result.All))
	fmt.Println("───────────────────────────────────────────────────────────")

	if !result.HasRelationships() {
		fmt.Println("  No significant relationships found")
	}
	for _, rel := range result.Top {
		fmt.Printf("  #%d %s -> %s  lag=%+d  corr=%.4f  z=%.2f  n=%d\n",
			rel.Rank, rel.LeadSeries, rel.LagSeries, rel.Lag, rel.Correlation, rel.Significance, rel.SampleSize)
	}

	if !result.Composite.IsEmpty() {
		last := result.Composite.Observations[result.Composite.Len()-1]
		fmt.Println("───────────────────────────────────────────────────────────")
		fmt.Printf("  Composite : %d points, latest %.3f @ %s\n",
			result.Composite.Len(), last.Value, last.Date.Format("2006-01-02"))
	}

	fmt.Println()
	fmt.Printf("✅ Scan completed in %.2fs\n", result.Duration.Seconds())
}

// PrintCollectResults prints per-series collection outcomes
func PrintCollectResults(results []fetch.Result, elapsed time.Duration) {
	success := 0
	for _, r := range results {
		if r.Error != nil {
			fmt.Printf("  ✗ %-20s %v\n", r.Name, r.Error)
			continue
		}
		fmt.Printf("  ✓ %-20s %d observations\n", r.Name, r.Series.Len())
		success++
	}

	fmt.Println()
	fmt.Printf("✅ Collected %d/%d series in %.2fs\n", success, len(results), elapsed.Seconds())
}

// parseDateFlag parses an optional YYYY-MM-DD flag value
func parseDateFlag(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q (expected YYYY-MM-DD)", name, value)
	}
	return t, nil
}
