package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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
	return NewClient(httpClient, log).WithBaseURL(server.URL)
}

func TestFetchDailyCloses(t *testing.T) {
	day0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/v8/finance/chart/^GSPC" {
			t.Errorf("path = %q, want /v8/finance/chart/^GSPC", got)
		}
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("interval = %q, want 1d", got)
		}

		// Day 1 closes null: a halt, not a zero
		fmt.Fprintf(w, `{"chart": {"result": [{
			"timestamp": [%d, %d, %d],
			"indicators": {"quote": [{"close": [5900.25, null, 5950.75]}]}
		}], "error": null}}`,
			day0.Unix(), day0.AddDate(0, 0, 1).Unix(), day0.AddDate(0, 0, 2).Unix())
	})

	series, err := client.FetchDailyCloses(context.Background(), "^GSPC", day0, day0.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("FetchDailyCloses() error: %v", err)
	}

	if series.Len() != 2 {
		t.Fatalf("series length = %d, want 2", series.Len())
	}
	if _, ok := series.Get(day0.AddDate(0, 0, 1)); ok {
		t.Error("null-close day should be missing from the series")
	}
	if v, _ := series.Get(day0.AddDate(0, 0, 2)); v != 5950.75 {
		t.Errorf("close at day 2 = %v, want 5950.75", v)
	}
}

func TestFetchDailyCloses_ChartError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`)
	})

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := client.FetchDailyCloses(context.Background(), "NOPE", from, from.AddDate(0, 0, 5))
	if err == nil {
		t.Fatal("chart error should fail")
	}
}

func TestFetchDailyCloses_EmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [], "error": null}}`)
	})

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := client.FetchDailyCloses(context.Background(), "^GSPC", from, from.AddDate(0, 0, 5))
	if err == nil {
		t.Fatal("empty chart result should fail")
	}
}
