package scan

import (
	"math"
	"testing"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/logger"
)

func ranked(lead string, lag int, corr float64, rank int) contracts.RankedRelationship {
	return contracts.RankedRelationship{
		LagCorrelation: contracts.LagCorrelation{
			LeadSeries:  lead,
			LagSeries:   "target",
			Lag:         lag,
			Correlation: corr,
		},
		Rank: rank,
	}
}

// tableWithDates builds an aligned table over an explicit index
func tableWithDates(target string, dates []time.Time, columns map[string][]float64) *contracts.AlignedTable {
	return &contracts.AlignedTable{
		Dates:   dates,
		Columns: columns,
		Target:  target,
	}
}

func TestComposite_EmptyTopIsEmptySeries(t *testing.T) {
	table := tableFrom("target", map[string][]float64{"target": rising(20)})

	composite := NewCompositeBuilder(logger.NewNop()).Build(table, nil)
	if !composite.IsEmpty() {
		t.Errorf("composite from empty top = %d observations, want 0", composite.Len())
	}
	if composite.Name != CompositeName {
		t.Errorf("name = %q, want %q", composite.Name, CompositeName)
	}
}

func TestComposite_SingleRelationshipShift(t *testing.T) {
	// One contributor at lag 3: row i of the lead lands on row i+3, the
	// last 3 rows shift off the edge, and the remainder is re-normalized.
	// Standardizing is affine-invariant, so the expected values are just
	// the z-score of the surviving prefix.
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9, 3, 2, 3, 8, 4}
	table := tableFrom("target", map[string][]float64{
		"x":      values,
		"target": rising(20),
	})

	composite := NewCompositeBuilder(logger.NewNop()).Build(table, []contracts.RankedRelationship{
		ranked("x", 3, 0.9, 1),
	})

	if composite.Len() != 17 {
		t.Fatalf("composite length = %d, want 17", composite.Len())
	}
	if !composite.Start().Equal(table.Dates[3]) {
		t.Errorf("composite start = %s, want %s", composite.Start(), table.Dates[3])
	}
	if !composite.End().Equal(table.Dates[19]) {
		t.Errorf("composite end = %s, want %s", composite.End(), table.Dates[19])
	}

	want := contracts.NewTimeSeries("want", table.Dates[3:], values[:17]).ZScore()
	for _, o := range want.Observations {
		got, ok := composite.Get(o.Date)
		if !ok {
			t.Fatalf("composite missing date %s", o.Date)
		}
		if math.Abs(got-o.Value) > 1e-9 {
			t.Errorf("composite at %s = %v, want %v", o.Date, got, o.Value)
		}
	}
}

func TestComposite_RowShiftAcrossIndexGap(t *testing.T) {
	// The aligned index is not necessarily contiguous: a beyond-cap gap
	// leaves a hole in the dates. The shift must move by rows of the
	// index, exactly as the lag was measured, so the value from the last
	// row before the hole lands on the first row after it.
	start := day(2026, 1, 1)
	var dates []time.Time
	for _, off := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29} {
		dates = append(dates, start.AddDate(0, 0, off))
	}
	lead := rising(20)
	table := tableWithDates("target", dates, map[string][]float64{
		"x":      lead,
		"target": rising(20),
	})

	composite := NewCompositeBuilder(logger.NewNop()).Build(table, []contracts.RankedRelationship{
		ranked("x", 1, 1.0, 1),
	})

	if composite.Len() != 19 {
		t.Fatalf("composite length = %d, want 19", composite.Len())
	}
	if _, ok := composite.Get(start.AddDate(0, 0, 10)); ok {
		t.Error("composite has a value inside the index hole")
	}
	if _, ok := composite.Get(dates[10]); !ok {
		t.Errorf("composite missing %s, the first row after the hole", dates[10])
	}

	want := contracts.NewTimeSeries("want", dates[1:], lead[:19]).ZScore()
	for _, o := range want.Observations {
		got, ok := composite.Get(o.Date)
		if !ok {
			t.Fatalf("composite missing date %s", o.Date)
		}
		if math.Abs(got-o.Value) > 1e-9 {
			t.Errorf("composite at %s = %v, want %v", o.Date, got, o.Value)
		}
	}
}

func TestComposite_Renormalized(t *testing.T) {
	// Blend of two contributors at different lags still comes out as a
	// z-score: mean 0, sample stdev 1. Lags +2 and -1 together cover the
	// whole index, so the composite spans every aligned date.
	a := make([]float64, 40)
	b := make([]float64, 40)
	for i := range a {
		a[i] = math.Sin(2 * math.Pi * float64(i) / 15)
		b[i] = float64(i) + math.Cos(2*math.Pi*float64(i)/9)
	}
	table := tableFrom("target", map[string][]float64{
		"a":      a,
		"b":      b,
		"target": rising(40),
	})

	composite := NewCompositeBuilder(logger.NewNop()).Build(table, []contracts.RankedRelationship{
		ranked("a", 2, 0.8, 1),
		ranked("b", -1, -0.5, 2),
	})

	if composite.Len() != 40 {
		t.Fatalf("composite length = %d, want 40", composite.Len())
	}
	if mean := composite.Mean(); math.Abs(mean) > 1e-9 {
		t.Errorf("composite mean = %v, want 0", mean)
	}
	if std := composite.StdDev(); math.Abs(std-1) > 1e-9 {
		t.Errorf("composite stdev = %v, want 1", std)
	}
	if !composite.Start().Equal(table.Dates[0]) {
		t.Errorf("composite start = %s, want %s", composite.Start(), table.Dates[0])
	}
	if !composite.End().Equal(table.Dates[39]) {
		t.Errorf("composite end = %s, want %s", composite.End(), table.Dates[39])
	}
}

func TestComposite_MissingLeadColumnSkipped(t *testing.T) {
	table := tableFrom("target", map[string][]float64{
		"x":      rising(20),
		"target": rising(20),
	})

	composite := NewCompositeBuilder(logger.NewNop()).Build(table, []contracts.RankedRelationship{
		ranked("ghost", 1, 0.9, 1),
	})
	if !composite.IsEmpty() {
		t.Errorf("composite with only a missing contributor = %d observations, want 0", composite.Len())
	}
}

func TestComposite_ZeroWeights(t *testing.T) {
	// Every contributing correlation exactly 0: no weight anywhere, the
	// blend stays at 0 instead of dividing by zero.
	table := tableFrom("target", map[string][]float64{
		"x":      []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8},
		"target": rising(12),
	})

	composite := NewCompositeBuilder(logger.NewNop()).Build(table, []contracts.RankedRelationship{
		ranked("x", 1, 0, 1),
	})

	if composite.Len() != 11 {
		t.Fatalf("composite length = %d, want 11", composite.Len())
	}
	for _, o := range composite.Observations {
		if o.Value != 0 {
			t.Errorf("value at %s = %v, want 0 with zero weights", o.Date, o.Value)
		}
	}
}
