package contracts

import (
	"math"
	"sort"
	"time"
)

// Observation is a single dated value of a series
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeries is a named, date-ordered sequence of daily observations.
// Dates are strictly increasing, one value per date; a missing day is an
// absent row, never a NaN.
// ⭐ SSOT: 시계열 데이터 전달은 이 타입으로만
type TimeSeries struct {
	Name         string        `json:"name"`
	Observations []Observation `json:"observations"`
}

// NewTimeSeries builds a TimeSeries from parallel date/value slices.
// Observations are sorted by day; duplicate days keep the last value,
// so sources that return newest-first or re-report a day stay valid.
func NewTimeSeries(name string, dates []time.Time, values []float64) TimeSeries {
	obs := make([]Observation, 0, len(dates))
	for i := range dates {
		obs = append(obs, Observation{Date: Day(dates[i]), Value: values[i]})
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	deduped := obs[:0]
	for _, o := range obs {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(o.Date) {
			deduped[n-1] = o
			continue
		}
		deduped = append(deduped, o)
	}
	return TimeSeries{Name: name, Observations: deduped}
}

// Day truncates a timestamp to its UTC calendar day
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Len returns the number of observations
func (ts TimeSeries) Len() int {
	return len(ts.Observations)
}

// IsEmpty reports whether the series has no observations
func (ts TimeSeries) IsEmpty() bool {
	return len(ts.Observations) == 0
}

// Start returns the first observation date (zero time when empty)
func (ts TimeSeries) Start() time.Time {
	if ts.IsEmpty() {
		return time.Time{}
	}
	return ts.Observations[0].Date
}

// End returns the last observation date (zero time when empty)
func (ts TimeSeries) End() time.Time {
	if ts.IsEmpty() {
		return time.Time{}
	}
	return ts.Observations[len(ts.Observations)-1].Date
}

// Get returns the value at a date
func (ts TimeSeries) Get(date time.Time) (float64, bool) {
	d := Day(date)
	// Binary search: observations are date-ordered
	lo, hi := 0, len(ts.Observations)
	for lo < hi {
		mid := (lo + hi) / 2
		if ts.Observations[mid].Date.Before(d) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(ts.Observations) && ts.Observations[lo].Date.Equal(d) {
		return ts.Observations[lo].Value, true
	}
	return 0, false
}

// Values returns the raw value slice in date order
func (ts TimeSeries) Values() []float64 {
	values := make([]float64, len(ts.Observations))
	for i, o := range ts.Observations {
		values[i] = o.Value
	}
	return values
}

// Mean returns the arithmetic mean of the values (0 when empty)
func (ts TimeSeries) Mean() float64 {
	return Mean(ts.Values())
}

// StdDev returns the sample standard deviation of the values (0 when n < 2)
func (ts TimeSeries) StdDev() float64 {
	return StdDev(ts.Values())
}

// ZScore returns the series expressed as z-scores over its own span.
// A zero standard deviation yields an all-zero series, not NaN.
func (ts TimeSeries) ZScore() TimeSeries {
	mean := ts.Mean()
	std := ts.StdDev()

	obs := make([]Observation, len(ts.Observations))
	for i, o := range ts.Observations {
		z := 0.0
		if std > 0 {
			z = (o.Value - mean) / std
		}
		obs[i] = Observation{Date: o.Date, Value: z}
	}
	return TimeSeries{Name: ts.Name, Observations: obs}
}

// Window returns the sub-series within [from, to] inclusive
func (ts TimeSeries) Window(from, to time.Time) TimeSeries {
	f, t := Day(from), Day(to)
	obs := make([]Observation, 0, len(ts.Observations))
	for _, o := range ts.Observations {
		if o.Date.Before(f) || o.Date.After(t) {
			continue
		}
		obs = append(obs, o)
	}
	return TimeSeries{Name: ts.Name, Observations: obs}
}

// Mean returns the arithmetic mean of a value slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation of a value slice
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
