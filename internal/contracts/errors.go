package contracts

import "fmt"

// AlignmentError reports a failure to place the input series onto a
// common daily index (empty input, missing target, insufficient overlap).
// Recoverable at the caller level, fatal to the scan.
type AlignmentError struct {
	Reason string
}

func (e *AlignmentError) Error() string {
	return "alignment failed: " + e.Reason
}

// RankingError reports invalid ranking inputs (too few columns, bad top_n)
type RankingError struct {
	Reason string
}

func (e *RankingError) Error() string {
	return "ranking failed: " + e.Reason
}

// Scan pipeline stages, in execution order
const (
	StageReceived   = "received"
	StageAligned    = "aligned"
	StageRanked     = "ranked"
	StageComposited = "composited"
	StageBundled    = "bundled"
)

// ScanError wraps a stage failure. The remaining pipeline stages are
// aborted and no partial ScanResult is produced.
type ScanError struct {
	Stage string
	Err   error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed at stage %s: %v", e.Stage, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
