package scan

import (
	"math"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/logger"
)

// CompositeName is the series name of every built composite signal
const CompositeName = "composite"

// CompositeBuilder blends the top relationships' lead series into one
// correlation-weighted, re-normalized predictive signal.
// ⭐ SSOT: 합성 시그널 생성은 여기서만
type CompositeBuilder struct {
	logger *logger.Logger
}

// NewCompositeBuilder creates a new composite builder
func NewCompositeBuilder(log *logger.Logger) *CompositeBuilder {
	return &CompositeBuilder{logger: log}
}

// Build z-scores each relationship's lead column, shifts it by its
// discovered lag along the aligned index, and averages the shifted
// columns weighted by |correlation|. The shift is positional over
// table.Dates, matching how the correlator measured the lag; the two
// stay consistent even when the index has gaps. Rows where a contributor
// is shifted past either edge are averaged over the contributors
// actually present. The blend is re-normalized to its own z-score at the
// end. An empty top yields an empty series: "nothing significant" is a
// valid outcome.
func (b *CompositeBuilder) Build(table *contracts.AlignedTable, top []contracts.RankedRelationship) contracts.TimeSeries {
	if len(top) == 0 {
		return contracts.TimeSeries{Name: CompositeName}
	}

	n := table.Len()
	weighted := make([]float64, n)
	weightSum := make([]float64, n)
	covered := make([]bool, n)

	contributors := 0
	for _, rel := range top {
		colValues, ok := table.Columns[rel.LeadSeries]
		if !ok {
			// Derived from this table, so the column should exist; a miss
			// is an inconsistency worth reporting, not a crash.
			b.logger.WithField("series", rel.LeadSeries).Warn("Ranked lead series missing from aligned table, skipping")
			continue
		}

		z := zscoreValues(colValues)
		weight := math.Abs(rel.Correlation)
		contributors++

		// Row i of the lead informs row i+lag of the target
		for i, v := range z {
			j := i + rel.Lag
			if j < 0 || j >= n {
				continue
			}
			weighted[j] += weight * v
			weightSum[j] += weight
			covered[j] = true
		}
	}

	if contributors == 0 {
		return contracts.TimeSeries{Name: CompositeName}
	}

	var dates []time.Time
	var values []float64
	for i := 0; i < n; i++ {
		if !covered[i] {
			continue
		}
		v := 0.0
		if weightSum[i] > 0 {
			v = weighted[i] / weightSum[i]
		}
		// All-zero weights (every top correlation exactly 0) leave the
		// value at 0 rather than dividing by zero.
		dates = append(dates, table.Dates[i])
		values = append(values, v)
	}

	return renormalize(contracts.NewTimeSeries(CompositeName, dates, values))
}

// zscoreValues standardizes a column. A zero standard deviation yields
// all zeros.
func zscoreValues(values []float64) []float64 {
	z := make([]float64, len(values))
	std := contracts.StdDev(values)
	if std == 0 {
		return z
	}
	mean := contracts.Mean(values)
	for i, v := range values {
		z[i] = (v - mean) / std
	}
	return z
}

// renormalize converts the blend to a z-score over its own span. A zero
// standard deviation leaves the series unscaled.
func renormalize(ts contracts.TimeSeries) contracts.TimeSeries {
	std := ts.StdDev()
	if std == 0 {
		return ts
	}

	mean := ts.Mean()
	obs := make([]contracts.Observation, len(ts.Observations))
	for i, o := range ts.Observations {
		obs[i] = contracts.Observation{Date: o.Date, Value: (o.Value - mean) / std}
	}
	return contracts.TimeSeries{Name: ts.Name, Observations: obs}
}
