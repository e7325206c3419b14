package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/config"
	"github.com/wonny/leadlag/pkg/httputil"
	"github.com/wonny/leadlag/pkg/logger"
)

const (
	defaultBaseURL = "https://api.binance.com"

	// Public market data allows a generous request weight; 6 req/s
	// stays well under it
	defaultRequestsPerSec = 6.0

	// Klines endpoint caps each page at 1000 candles
	defaultPageLimit = 1000
)

// Client handles communication with the Binance public market data API
// ⭐ SSOT: Binance REST 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
	baseURL    string
	pageLimit  int
}

// NewClient creates a new Binance client. Endpoint, request rate, and
// page size come from config; zero values fall back to the defaults.
func NewClient(cfg config.BinanceConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = defaultRequestsPerSec
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	pageLimit := cfg.MaxKlines
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}

	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     log.WithField("source", "binance"),
		baseURL:    baseURL,
		pageLimit:  pageLimit,
	}
}

// kline is one raw candle row. Binance returns a positional array mixing
// numbers and strings, so fields decode from json.Number/string by hand.
type kline struct {
	openTime time.Time
	close    float64
}

// FetchDailyCloses fetches daily close prices for a symbol, paging
// through the klines endpoint until the window is covered.
func (c *Client) FetchDailyCloses(ctx context.Context, symbol string, from, to time.Time) (contracts.TimeSeries, error) {
	var dates []time.Time
	var values []float64

	cursor := from
	for !cursor.After(to) {
		klines, err := c.fetchPage(ctx, symbol, cursor, to)
		if err != nil {
			return contracts.TimeSeries{}, err
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			dates = append(dates, k.openTime)
			values = append(values, k.close)
		}

		last := klines[len(klines)-1].openTime
		cursor = last.AddDate(0, 0, 1)

		if len(klines) < c.pageLimit {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(values),
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}).Debug("Fetched daily closes")

	return contracts.NewTimeSeries(symbol, dates, values), nil
}

// fetchPage fetches one page of daily klines starting at from
func (c *Client) fetchPage(ctx context.Context, symbol string, from, to time.Time) ([]kline, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", "1d")
	params.Set("startTime", strconv.FormatInt(from.UnixMilli(), 10))
	params.Set("endTime", strconv.FormatInt(to.AddDate(0, 0, 1).UnixMilli(), 10))
	params.Set("limit", strconv.Itoa(c.pageLimit))

	// Each row mixes JSON numbers (timestamps) and strings (prices), so
	// the fields decode individually from raw messages.
	var raw [][]json.RawMessage
	reqURL := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, params.Encode())
	if err := c.httpClient.GetJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", symbol, err)
	}

	klines := make([]kline, 0, len(raw))
	for _, row := range raw {
		// [0]=open time ms, [4]=close price
		if len(row) < 5 {
			return nil, fmt.Errorf("malformed kline row for %s: %d fields", symbol, len(row))
		}

		var openMs int64
		if err := json.Unmarshal(row[0], &openMs); err != nil {
			return nil, fmt.Errorf("parse kline open time for %s: %w", symbol, err)
		}
		var closeStr string
		if err := json.Unmarshal(row[4], &closeStr); err != nil {
			return nil, fmt.Errorf("parse kline close for %s: %w", symbol, err)
		}
		closePrice, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse kline close for %s: %w", symbol, err)
		}

		klines = append(klines, kline{
			openTime: time.UnixMilli(openMs).UTC().Truncate(24 * time.Hour),
			close:    closePrice,
		})
	}

	return klines, nil
}
