package fng

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

func newTestClient(t *testing.T, api, page http.HandlerFunc) *Client {
	t.Helper()
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)
	pageServer := httptest.NewServer(page)
	t.Cleanup(pageServer.Close)

	log := logger.NewNop()
	httpClient := httputil.New(&config.Config{}, log).DisableRetry()
	return NewClient(httpClient, log).WithURLs(apiServer.URL, pageServer.URL)
}

func TestFetchIndex(t *testing.T) {
	day0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			// Newest first, with one day outside the window
			fmt.Fprintf(w, `{"data": [
				{"value": "70", "timestamp": "%d"},
				{"value": "55", "timestamp": "%d"},
				{"value": "40", "timestamp": "%d"}
			], "metadata": {"error": null}}`,
				day0.AddDate(0, 0, 2).Unix(), day0.Unix(), day0.AddDate(0, 0, -30).Unix())
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("page should not be scraped when the API works")
		},
	)

	series, err := client.FetchIndex(context.Background(), "Fear & Greed", day0, day0.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("FetchIndex() error: %v", err)
	}

	if series.Len() != 2 {
		t.Fatalf("series length = %d, want 2 (out-of-window day clipped)", series.Len())
	}
	if !series.Start().Equal(day0) {
		t.Errorf("start = %s, want %s (oldest first)", series.Start(), day0)
	}
	if v, _ := series.Get(day0); v != 55 {
		t.Errorf("value at day 0 = %v, want 55", v)
	}
}

func TestFetchIndex_ScrapeFallback(t *testing.T) {
	client := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body><div class="fng-circle">63</div></body></html>`)
		},
	)

	from := time.Now().UTC().AddDate(0, 0, -10)
	series, err := client.FetchIndex(context.Background(), "Fear & Greed", from, time.Now().UTC())
	if err != nil {
		t.Fatalf("FetchIndex() fallback error: %v", err)
	}

	if series.Len() != 1 {
		t.Fatalf("fallback series length = %d, want 1", series.Len())
	}
	if series.Observations[0].Value != 63 {
		t.Errorf("scraped value = %v, want 63", series.Observations[0].Value)
	}
}

func TestFetchIndex_BothFail(t *testing.T) {
	client := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body>no index here</body></html>`)
		},
	)

	from := time.Now().UTC().AddDate(0, 0, -10)
	if _, err := client.FetchIndex(context.Background(), "Fear & Greed", from, time.Now().UTC()); err == nil {
		t.Fatal("both sources failing should error")
	}
}
