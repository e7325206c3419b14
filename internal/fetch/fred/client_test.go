package fred

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/config"
	"github.com/wonny/leadlag/pkg/httputil"
	"github.com/wonny/leadlag/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewNop()
	httpClient := httputil.New(&config.Config{}, log).DisableRetry()
	return NewClient(config.FREDConfig{APIKey: "test-key", BaseURL: server.URL}, httpClient, log)
}

func TestFetchObservations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("series_id"); got != "DGS10" {
			t.Errorf("series_id = %q, want DGS10", got)
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("api_key = %q, want test-key", got)
		}

		fmt.Fprint(w, `{"observations": [
			{"date": "2026-01-01", "value": "4.25"},
			{"date": "2026-01-02", "value": "."},
			{"date": "2026-01-05", "value": "4.31"}
		]}`)
	})

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series, err := client.FetchObservations(context.Background(), "DGS10", from, from.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("FetchObservations() error: %v", err)
	}

	// The "." placeholder day is absent, not zero
	if series.Len() != 2 {
		t.Fatalf("series length = %d, want 2", series.Len())
	}
	if _, ok := series.Get(from.AddDate(0, 0, 1)); ok {
		t.Error("placeholder day should be missing from the series")
	}
	if v, _ := series.Get(from.AddDate(0, 0, 4)); v != 4.31 {
		t.Errorf("value at 2026-01-05 = %v, want 4.31", v)
	}
}

func TestFetchObservations_NoAPIKey(t *testing.T) {
	log := logger.NewNop()
	client := NewClient(config.FREDConfig{}, httputil.New(&config.Config{}, log), log)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := client.FetchObservations(context.Background(), "DGS10", from, from); err == nil {
		t.Fatal("missing API key should fail")
	}
}

// stubGoldProxy records the fallback call
type stubGoldProxy struct {
	called bool
	symbol string
}

func (s *stubGoldProxy) FetchDailyCloses(ctx context.Context, symbol string, from, to time.Time) (contracts.TimeSeries, error) {
	s.called = true
	s.symbol = symbol
	return contracts.NewTimeSeries(symbol, []time.Time{from}, []float64{2100.5}), nil
}

func TestFetchGold_FallsBackToProxy(t *testing.T) {
	// Every FRED gold series is empty: the market proxy must serve
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"observations": []}`)
	})

	proxy := &stubGoldProxy{}
	client.WithGoldProxy(proxy)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series, err := client.FetchGold(context.Background(), from, from.AddDate(0, 0, 10))
	if err != nil {
		t.Fatalf("FetchGold() error: %v", err)
	}

	if !proxy.called {
		t.Fatal("gold proxy should have been called")
	}
	if proxy.symbol != GoldProxySymbol {
		t.Errorf("proxy symbol = %q, want %q", proxy.symbol, GoldProxySymbol)
	}
	if series.IsEmpty() {
		t.Error("proxy series should not be empty")
	}
}

func TestFetchGold_PrefersFREDSeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"observations": [{"date": "2026-01-02", "value": "2050.0"}]}`)
	})

	proxy := &stubGoldProxy{}
	client.WithGoldProxy(proxy)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series, err := client.FetchGold(context.Background(), from, from.AddDate(0, 0, 10))
	if err != nil {
		t.Fatalf("FetchGold() error: %v", err)
	}

	if proxy.called {
		t.Error("proxy should not be called when FRED serves the series")
	}
	if series.Len() != 1 {
		t.Errorf("series length = %d, want 1", series.Len())
	}
}
