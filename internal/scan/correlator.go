package scan

import (
	"math"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/logger"
)

// Correlator computes the Pearson lag-correlation profile of a series
// pair over the full symmetric lag window.
// ⭐ SSOT: 상관계수 계산은 여기서만
type Correlator struct {
	minSamples int // minimum paired observations per lag
	logger     *logger.Logger
}

// NewCorrelator creates a new correlator
func NewCorrelator(minSamples int, log *logger.Logger) *Correlator {
	return &Correlator{
		minSamples: minSamples,
		logger:     log,
	}
}

// Correlate returns one LagCorrelation per lag in [-maxLag, +maxLag].
// A positive lag pairs lead[t] with lagSeries[t+lag], testing whether the
// lead series precedes the other by lag steps. Lags with fewer than
// minSamples paired observations are skipped entirely; a zero-variance
// slice yields correlation 0 rather than NaN.
func (c *Correlator) Correlate(lead, lagSeries contracts.TimeSeries, maxLag int) []contracts.LagCorrelation {
	leadVals, lagVals := pairedValues(lead, lagSeries)
	n := len(leadVals)

	profile := make([]contracts.LagCorrelation, 0, 2*maxLag+1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		pairs := n - abs(lag)
		if pairs < c.minSamples {
			// Too few samples at the window's edge produce spurious
			// correlations; contribute no entry, not a zero entry.
			continue
		}

		var x, y []float64
		if lag >= 0 {
			x = leadVals[:n-lag]
			y = lagVals[lag:]
		} else {
			x = leadVals[-lag:]
			y = lagVals[:n+lag]
		}

		corr, degenerate := pearson(x, y)
		if degenerate {
			c.logger.WithFields(map[string]interface{}{
				"lead":    lead.Name,
				"lag_col": lagSeries.Name,
				"lag":     lag,
				"samples": pairs,
			}).Debug("Zero variance slice, correlation set to 0")
		}

		profile = append(profile, contracts.LagCorrelation{
			LeadSeries:  lead.Name,
			LagSeries:   lagSeries.Name,
			Lag:         lag,
			Correlation: corr,
			SampleSize:  pairs,
		})
	}
	return profile
}

// pairedValues aligns two series onto their shared dates and returns the
// paired value slices in date order. Series already on an identical index
// pass through without copying per-date.
func pairedValues(a, b contracts.TimeSeries) ([]float64, []float64) {
	if a.Len() == b.Len() && a.Len() > 0 &&
		a.Start().Equal(b.Start()) && a.End().Equal(b.End()) {
		return a.Values(), b.Values()
	}

	var av, bv []float64
	for _, o := range a.Observations {
		if v, ok := b.Get(o.Date); ok {
			av = append(av, o.Value)
			bv = append(bv, v)
		}
	}
	return av, bv
}

// pearson computes the standard Pearson correlation coefficient.
// Returns (0, true) when either slice has zero variance.
func pearson(x, y []float64) (float64, bool) {
	n := float64(len(x))
	if n == 0 {
		return 0, true
	}

	meanX := contracts.Mean(x)
	meanY := contracts.Mean(y)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, true
	}

	corr := cov / math.Sqrt(varX*varY)

	// Clamp floating error at the boundaries
	if corr > 1 {
		corr = 1
	} else if corr < -1 {
		corr = -1
	}
	return corr, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
