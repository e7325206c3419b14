package contracts

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// AlignedTable is a set of series reindexed onto one shared daily date
// index with no missing values. Every column has identical length and
// identical dates; non-target columns may have been forward-filled.
// ⭐ SSOT: 정렬된 시계열 테이블은 이 타입으로만 전달
type AlignedTable struct {
	Dates   []time.Time          `json:"dates"`
	Columns map[string][]float64 `json:"columns"`
	Target  string               `json:"target"`
}

// Len returns the number of shared dates
func (t *AlignedTable) Len() int {
	return len(t.Dates)
}

// ColumnNames returns the column names in lexical order
func (t *AlignedTable) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Column returns the named column as a TimeSeries on the shared index
func (t *AlignedTable) Column(name string) (TimeSeries, bool) {
	values, ok := t.Columns[name]
	if !ok {
		return TimeSeries{}, false
	}
	return NewTimeSeries(name, t.Dates, values), true
}

// LagCorrelation is the correlation of one ordered series pair at one lag.
// A positive lag means the lead series' value at t is paired with the lag
// series' value at t+lag.
type LagCorrelation struct {
	LeadSeries  string  `json:"lead_series"`
	LagSeries   string  `json:"lag_series"`
	Lag         int     `json:"lag"`
	Correlation float64 `json:"correlation"`
	SampleSize  int     `json:"sample_size"`
}

// RankedRelationship is a LagCorrelation with its significance within the
// scanned population and its final rank position
type RankedRelationship struct {
	LagCorrelation

	Significance float64 `json:"significance"` // z-score vs all scanned correlations
	Rank         int     `json:"rank"`         // 1-based
}

// ScanResult is the terminal artifact of one scan invocation
type ScanResult struct {
	Start       time.Time            `json:"start"`
	End         time.Time            `json:"end"`
	SeriesCount int                  `json:"series_count"`
	DataPoints  int                  `json:"data_points"`
	MaxLag      int                  `json:"max_lag"`
	TopN        int                  `json:"top_n"`
	All         []LagCorrelation     `json:"all"`
	Top         []RankedRelationship `json:"top"`
	Composite   TimeSeries           `json:"composite"`
	Duration    time.Duration        `json:"duration"`
}

// HasRelationships reports whether the scan found anything significant.
// A false result is a valid outcome, distinct from a failed scan.
func (r *ScanResult) HasRelationships() bool {
	return len(r.Top) > 0
}

// Summary renders a fixed-precision human-readable report
func (r *ScanResult) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Window     : %s ~ %s\n", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	fmt.Fprintf(&b, "Series     : %d\n", r.SeriesCount)
	fmt.Fprintf(&b, "Data points: %d\n", r.DataPoints)
	fmt.Fprintf(&b, "Max lag    : %d days\n", r.MaxLag)

	if !r.HasRelationships() {
		b.WriteString("No significant relationships found\n")
		return b.String()
	}

	for _, rel := range r.Top {
		fmt.Fprintf(&b, "#%d %s -> %s  lag=%+d  corr=%.4f  z=%.2f  n=%d\n",
			rel.Rank, rel.LeadSeries, rel.LagSeries, rel.Lag,
			rel.Correlation, rel.Significance, rel.SampleSize)
	}
	return b.String()
}
