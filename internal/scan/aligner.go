package scan

import (
	"fmt"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/logger"
)

// Aligner places independently-sampled series onto one shared daily
// calendar with a bounded forward-fill policy.
// ⭐ SSOT: 시계열 정렬은 여기서만
type Aligner struct {
	maxFillDays int // consecutive days a gap may be forward-filled
	minOverlap  int // minimum shared dates after intersection
	logger      *logger.Logger
}

// NewAligner creates a new aligner
func NewAligner(maxFillDays, minOverlap int, log *logger.Logger) *Aligner {
	return &Aligner{
		maxFillDays: maxFillDays,
		minOverlap:  minOverlap,
		logger:      log,
	}
}

// Align reindexes every series onto a daily calendar, forward-filling
// gaps up to the fill cap, and intersects the table to the dates where
// every kept series has a value. Non-target columns that end up empty or
// flat are dropped with a warning; the same condition on the target is a
// hard failure.
func (a *Aligner) Align(series map[string]contracts.TimeSeries, target string) (*contracts.AlignedTable, error) {
	if len(series) == 0 {
		return nil, &contracts.AlignmentError{Reason: "empty input"}
	}
	if _, ok := series[target]; !ok {
		return nil, &contracts.AlignmentError{Reason: fmt.Sprintf("target series %q not found", target)}
	}

	// Per-series daily reindex with capped forward fill
	daily := make(map[string]map[time.Time]float64, len(series))
	for name, ts := range series {
		filled := a.reindexDaily(ts)

		if len(filled) == 0 || isFlat(filled) {
			if name == target {
				return nil, &contracts.AlignmentError{Reason: fmt.Sprintf("target series %q is empty or has zero variance", target)}
			}
			a.logger.WithField("series", name).Warn("Dropping empty or zero-variance series")
			continue
		}
		daily[name] = filled
	}

	if _, ok := daily[target]; !ok {
		// Target survived the explicit check above; being here means the
		// map write was skipped, which cannot happen. Guard anyway.
		return nil, &contracts.AlignmentError{Reason: "target series lost during alignment"}
	}

	// Intersect to the range covered by every kept series
	var start, end time.Time
	first := true
	for _, filled := range daily {
		s, e := span(filled)
		if first {
			start, end = s, e
			first = false
			continue
		}
		if s.After(start) {
			start = s
		}
		if e.Before(end) {
			end = e
		}
	}

	var dates []time.Time
	if !start.After(end) {
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			covered := true
			for _, filled := range daily {
				if _, ok := filled[d]; !ok {
					covered = false
					break
				}
			}
			if covered {
				dates = append(dates, d)
			}
		}
	}

	if len(dates) < a.minOverlap {
		return nil, &contracts.AlignmentError{
			Reason: fmt.Sprintf("insufficient overlap: %d shared dates, need %d", len(dates), a.minOverlap),
		}
	}

	columns := make(map[string][]float64, len(daily))
	for name, filled := range daily {
		values := make([]float64, len(dates))
		for i, d := range dates {
			values[i] = filled[d]
		}
		columns[name] = values
	}

	a.logger.WithFields(map[string]interface{}{
		"series": len(columns),
		"dates":  len(dates),
		"from":   dates[0].Format("2006-01-02"),
		"to":     dates[len(dates)-1].Format("2006-01-02"),
	}).Debug("Aligned series table")

	return &contracts.AlignedTable{
		Dates:   dates,
		Columns: columns,
		Target:  target,
	}, nil
}

// reindexDaily expands a series to daily frequency, holding the last
// known value forward for at most maxFillDays consecutive missing days.
// A gap longer than the cap stays missing past the cap.
func (a *Aligner) reindexDaily(ts contracts.TimeSeries) map[time.Time]float64 {
	filled := make(map[time.Time]float64, ts.Len())
	if ts.IsEmpty() {
		return filled
	}

	last := 0.0
	gap := 0
	haveLast := false

	for d := ts.Start(); !d.After(ts.End()); d = d.AddDate(0, 0, 1) {
		if v, ok := ts.Get(d); ok {
			filled[d] = v
			last = v
			haveLast = true
			gap = 0
			continue
		}
		gap++
		if haveLast && gap <= a.maxFillDays {
			filled[d] = last
		}
		// Past the cap the day stays missing; it is cut out by the
		// intersection step rather than silently filled.
	}
	return filled
}

// span returns the first and last date present in a filled series
func span(filled map[time.Time]float64) (time.Time, time.Time) {
	var first, last time.Time
	for d := range filled {
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if last.IsZero() || d.After(last) {
			last = d
		}
	}
	return first, last
}

// isFlat reports whether every value in the series is identical
func isFlat(filled map[time.Time]float64) bool {
	var ref float64
	first := true
	for _, v := range filled {
		if first {
			ref = v
			first = false
			continue
		}
		if v != ref {
			return false
		}
	}
	return true
}
