package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/config"
	"github.com/wonny/leadlag/pkg/httputil"
	"github.com/wonny/leadlag/pkg/logger"
	"github.com/wonny/leadlag/pkg/redis"
)

const defaultBaseURL = "https://trends.google.com"

// Client fetches daily search interest from Google Trends. The API is
// unofficial: an explore call issues a widget token, and the token
// unlocks the timeseries endpoint. Results are cached in redis because
// Google throttles aggressively.
// ⭐ SSOT: Google Trends 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
	cacheTTL   time.Duration
}

// NewClient creates a new Google Trends client from config
func NewClient(cfg config.TrendsConfig, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &Client{
		httpClient: httpClient.WithUserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"),
		cache:      cache,
		logger:     log.WithField("source", "trends"),
		baseURL:    baseURL,
		cacheTTL:   ttl,
	}
}

// exploreResponse carries the widget tokens issued by the explore call
type exploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

// multilineResponse is the timeseries widget payload
type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Time  string    `json:"time"`
			Value []float64 `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// FetchInterest fetches daily search interest for a keyword. The window
// is served from cache when a previous call covered it.
func (c *Client) FetchInterest(ctx context.Context, keyword string, from, to time.Time) (contracts.TimeSeries, error) {
	cacheKey := redis.TrendsKey(keyword, from.Format("2006-01-02"), to.Format("2006-01-02"))

	var cached contracts.TimeSeries
	if hit, err := c.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		c.logger.WithField("keyword", keyword).Debug("Serving interest from cache")
		return cached, nil
	}

	token, request, err := c.explore(ctx, keyword, from, to)
	if err != nil {
		return contracts.TimeSeries{}, err
	}

	series, err := c.fetchTimeline(ctx, keyword, token, request)
	if err != nil {
		return contracts.TimeSeries{}, err
	}

	if err := c.cache.Set(ctx, cacheKey, series, c.cacheTTL); err != nil {
		c.logger.WithError(err).Warn("Failed to cache interest")
	}
	return series, nil
}

// explore issues the widget token for a keyword and window
func (c *Client) explore(ctx context.Context, keyword string, from, to time.Time) (string, json.RawMessage, error) {
	req := map[string]interface{}{
		"comparisonItem": []map[string]interface{}{
			{
				"keyword": keyword,
				"geo":     "",
				"time":    fmt.Sprintf("%s %s", from.Format("2006-01-02"), to.Format("2006-01-02")),
			},
		},
		"category": 0,
		"property": "",
	}
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", nil, fmt.Errorf("marshal explore request: %w", err)
	}

	params := url.Values{}
	params.Set("hl", "en-US")
	params.Set("tz", "0")
	params.Set("req", string(reqJSON))

	body, err := c.getStripped(ctx, fmt.Sprintf("%s/trends/api/explore?%s", c.baseURL, params.Encode()))
	if err != nil {
		return "", nil, fmt.Errorf("explore for %q: %w", keyword, err)
	}

	var resp exploreResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", nil, fmt.Errorf("decode explore response for %q: %w", keyword, err)
	}

	for _, w := range resp.Widgets {
		if w.ID == "TIMESERIES" {
			return w.Token, w.Request, nil
		}
	}
	return "", nil, fmt.Errorf("no timeseries widget for %q", keyword)
}

// fetchTimeline fetches the daily values using an issued token
func (c *Client) fetchTimeline(ctx context.Context, keyword, token string, request json.RawMessage) (contracts.TimeSeries, error) {
	params := url.Values{}
	params.Set("hl", "en-US")
	params.Set("tz", "0")
	params.Set("token", token)
	params.Set("req", string(request))

	body, err := c.getStripped(ctx, fmt.Sprintf("%s/trends/api/widgetdata/multiline?%s", c.baseURL, params.Encode()))
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("timeline for %q: %w", keyword, err)
	}

	var resp multilineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("decode timeline for %q: %w", keyword, err)
	}

	var dates []time.Time
	var values []float64
	for _, point := range resp.Default.TimelineData {
		ts, err := strconv.ParseInt(point.Time, 10, 64)
		if err != nil {
			return contracts.TimeSeries{}, fmt.Errorf("parse timeline time %q: %w", point.Time, err)
		}
		if len(point.Value) == 0 {
			continue
		}
		dates = append(dates, time.Unix(ts, 0).UTC())
		values = append(values, point.Value[0])
	}

	c.logger.WithFields(map[string]interface{}{
		"keyword": keyword,
		"count":   len(values),
	}).Debug("Fetched search interest")

	return contracts.NewTimeSeries(keyword, dates, values), nil
}

// getStripped fetches a trends endpoint and strips the anti-JSON
// hijacking prefix from the body
func (c *Client) getStripped(ctx context.Context, reqURL string) ([]byte, error) {
	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	// Responses open with ")]}'," before the JSON payload
	if idx := strings.IndexByte(string(body), '{'); idx > 0 {
		body = body[idx:]
	}
	return body, nil
}
