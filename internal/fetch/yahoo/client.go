package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/httputil"
	"github.com/wonny/leadlag/pkg/logger"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client handles communication with the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client. Yahoo rejects requests
// without a browser-like User-Agent.
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.WithUserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"),
		logger:     log.WithField("source", "yahoo"),
		baseURL:    defaultBaseURL,
	}
}

// WithBaseURL overrides the API endpoint, for tests
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// chartResponse is the v8 chart API envelope, trimmed to what we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDailyCloses fetches daily close prices for a Yahoo symbol. Days
// where Yahoo reports a null close (halts, partial sessions) are skipped.
func (c *Client) FetchDailyCloses(ctx context.Context, symbol string, from, to time.Time) (contracts.TimeSeries, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "history")

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, reqURL, &resp); err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("fetch chart for %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return contracts.TimeSeries{}, fmt.Errorf("chart API error for %s: %s (%s)",
			symbol, resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return contracts.TimeSeries{}, fmt.Errorf("empty chart result for %s", symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return contracts.TimeSeries{}, fmt.Errorf("no quote data for %s", symbol)
	}
	closes := result.Indicators.Quote[0].Close

	var dates []time.Time
	var values []float64
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		dates = append(dates, time.Unix(ts, 0).UTC().Truncate(24*time.Hour))
		values = append(values, *closes[i])
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(values),
	}).Debug("Fetched daily closes")

	return contracts.NewTimeSeries(symbol, dates, values), nil
}
