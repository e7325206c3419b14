package fred

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/config"
	"github.com/wonny/leadlag/pkg/httputil"
	"github.com/wonny/leadlag/pkg/logger"
)

const defaultBaseURL = "https://api.stlouisfed.org"

// GoldFallbackSeries are tried in order when a gold series is requested;
// FRED has retired gold fixing series more than once.
var GoldFallbackSeries = []string{
	"GOLDAMGBD228NLBM",
	"GOLDPMGBD228NLBM",
	"IQ12260",
}

// GoldProxy fetches a market-traded gold proxy when every FRED gold
// series comes back empty. The Binance PAXG pair serves this in practice.
type GoldProxy interface {
	FetchDailyCloses(ctx context.Context, symbol string, from, to time.Time) (contracts.TimeSeries, error)
}

// GoldProxySymbol is the pair the proxy falls back to
const GoldProxySymbol = "PAXGUSDT"

// Client handles communication with the FRED observations API
// ⭐ SSOT: FRED 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	goldProxy  GoldProxy
}

// NewClient creates a new FRED client from config
func NewClient(cfg config.FREDConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("source", "fred"),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

// WithGoldProxy enables the market fallback for gold series
func (c *Client) WithGoldProxy(proxy GoldProxy) *Client {
	c.goldProxy = proxy
	return c
}

// observationsResponse is the FRED observations envelope
type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FetchObservations fetches one FRED series for a date window. FRED
// marks missing days with a "." value; those are skipped, not zeroed.
func (c *Client) FetchObservations(ctx context.Context, seriesID string, from, to time.Time) (contracts.TimeSeries, error) {
	if c.apiKey == "" {
		return contracts.TimeSeries{}, fmt.Errorf("FRED API key not configured")
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("observation_start", from.Format("2006-01-02"))
	params.Set("observation_end", to.Format("2006-01-02"))

	reqURL := fmt.Sprintf("%s/fred/series/observations?%s", c.baseURL, params.Encode())

	var resp observationsResponse
	if err := c.httpClient.GetJSON(ctx, reqURL, &resp); err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("fetch observations for %s: %w", seriesID, err)
	}

	var dates []time.Time
	var values []float64
	for _, obs := range resp.Observations {
		if obs.Value == "." {
			continue
		}
		date, err := time.ParseInLocation("2006-01-02", obs.Date, time.UTC)
		if err != nil {
			return contracts.TimeSeries{}, fmt.Errorf("parse observation date %q for %s: %w", obs.Date, seriesID, err)
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			return contracts.TimeSeries{}, fmt.Errorf("parse observation value %q for %s: %w", obs.Value, seriesID, err)
		}
		dates = append(dates, date)
		values = append(values, value)
	}

	c.logger.WithFields(map[string]interface{}{
		"series_id": seriesID,
		"count":     len(values),
	}).Debug("Fetched observations")

	return contracts.NewTimeSeries(seriesID, dates, values), nil
}

// FetchGold walks the gold series fallback chain and finally the market
// proxy. An empty series from FRED is treated as "series retired", not
// as an error.
func (c *Client) FetchGold(ctx context.Context, from, to time.Time) (contracts.TimeSeries, error) {
	for _, seriesID := range GoldFallbackSeries {
		series, err := c.FetchObservations(ctx, seriesID, from, to)
		if err != nil {
			c.logger.WithError(err).WithField("series_id", seriesID).Warn("Gold series fetch failed, trying next")
			continue
		}
		if !series.IsEmpty() {
			return series, nil
		}
		c.logger.WithField("series_id", seriesID).Warn("Gold series empty, trying next")
	}

	if c.goldProxy == nil {
		return contracts.TimeSeries{}, fmt.Errorf("all FRED gold series failed and no market proxy configured")
	}

	c.logger.WithField("symbol", GoldProxySymbol).Info("Falling back to market gold proxy")
	return c.goldProxy.FetchDailyCloses(ctx, GoldProxySymbol, from, to)
}
