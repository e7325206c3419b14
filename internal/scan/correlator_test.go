package scan

import (
	"math"
	"testing"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/logger"
)

func TestCorrelator_PerfectLag(t *testing.T) {
	start := day(2026, 1, 1)
	n := 60

	// y is x delayed by 3 days: y[t+3] == x[t]
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = math.Sin(2 * math.Pi * float64(i) / 40)
	}
	for i := 0; i < n; i++ {
		if i >= 3 {
			y[i] = x[i-3]
		} else {
			y[i] = x[0]
		}
	}

	lead := dailySeries("x", start, x)
	lag := dailySeries("y", start, y)

	profile := NewCorrelator(10, logger.NewNop()).Correlate(lead, lag, 5)
	if len(profile) != 11 {
		t.Fatalf("profile length = %d, want 11 (full symmetric window)", len(profile))
	}

	var at3 *contracts.LagCorrelation
	for i := range profile {
		if profile[i].Lag == 3 {
			at3 = &profile[i]
		}
		// P2: correlation always bounded
		if profile[i].Correlation < -1 || profile[i].Correlation > 1 {
			t.Errorf("correlation at lag %d = %v, out of [-1, 1]", profile[i].Lag, profile[i].Correlation)
		}
	}

	if at3 == nil {
		t.Fatal("no entry at lag 3")
	}
	if at3.Correlation < 0.99 {
		t.Errorf("correlation at lag 3 = %v, want ~1.0", at3.Correlation)
	}
	if at3.SampleSize != n-3 {
		t.Errorf("sample size at lag 3 = %d, want %d", at3.SampleSize, n-3)
	}
}

func TestCorrelator_MinSamplesSkip(t *testing.T) {
	start := day(2026, 1, 1)
	lead := dailySeries("x", start, rising(12))
	lag := dailySeries("y", start, rising(12))

	// With 12 points and a floor of 10, lags beyond |2| leave too few pairs
	profile := NewCorrelator(10, logger.NewNop()).Correlate(lead, lag, 5)
	if len(profile) != 5 {
		t.Fatalf("profile length = %d, want 5 (lags -2..+2)", len(profile))
	}
	for _, c := range profile {
		if c.Lag < -2 || c.Lag > 2 {
			t.Errorf("lag %d should have been skipped", c.Lag)
		}
		if c.SampleSize < 10 {
			t.Errorf("sample size %d below floor at lag %d", c.SampleSize, c.Lag)
		}
	}
}

func TestCorrelator_ZeroVariance(t *testing.T) {
	start := day(2026, 1, 1)
	flat := dailySeries("flat", start, []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5})
	moving := dailySeries("moving", start, rising(15))

	profile := NewCorrelator(10, logger.NewNop()).Correlate(flat, moving, 2)
	if len(profile) == 0 {
		t.Fatal("profile should not be empty")
	}
	for _, c := range profile {
		if c.Correlation != 0 {
			t.Errorf("degenerate correlation at lag %d = %v, want exactly 0", c.Lag, c.Correlation)
		}
	}
}

func TestCorrelator_NegativeCorrelation(t *testing.T) {
	start := day(2026, 1, 1)
	up := dailySeries("up", start, rising(30))
	downValues := make([]float64, 30)
	for i := range downValues {
		downValues[i] = float64(30 - i)
	}
	down := dailySeries("down", start, downValues)

	profile := NewCorrelator(10, logger.NewNop()).Correlate(up, down, 0)
	if len(profile) != 1 {
		t.Fatalf("profile length = %d, want 1", len(profile))
	}
	if math.Abs(profile[0].Correlation+1) > 1e-12 {
		t.Errorf("correlation = %v, want -1", profile[0].Correlation)
	}
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name       string
		x, y       []float64
		want       float64
		degenerate bool
	}{
		{
			name: "perfect positive",
			x:    []float64{1, 2, 3, 4},
			y:    []float64{2, 4, 6, 8},
			want: 1,
		},
		{
			name: "perfect negative",
			x:    []float64{1, 2, 3, 4},
			y:    []float64{8, 6, 4, 2},
			want: -1,
		},
		{
			name:       "zero variance x",
			x:          []float64{3, 3, 3},
			y:          []float64{1, 2, 3},
			want:       0,
			degenerate: true,
		},
		{
			name:       "empty",
			x:          nil,
			y:          nil,
			want:       0,
			degenerate: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, degenerate := pearson(tt.x, tt.y)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("pearson() = %v, want %v", got, tt.want)
			}
			if degenerate != tt.degenerate {
				t.Errorf("degenerate = %v, want %v", degenerate, tt.degenerate)
			}
		})
	}
}
