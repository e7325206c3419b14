package fng

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/httputil"
	"github.com/wonny/leadlag/pkg/logger"
)

const (
	defaultAPIURL  = "https://api.alternative.me"
	defaultPageURL = "https://alternative.me/crypto/fear-and-greed-index/"
)

// Client fetches the crypto Fear & Greed index from alternative.me
// ⭐ SSOT: Fear & Greed 수집은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiURL     string
	pageURL    string
}

// NewClient creates a new Fear & Greed client
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("source", "fng"),
		apiURL:     defaultAPIURL,
		pageURL:    defaultPageURL,
	}
}

// WithURLs overrides both endpoints, for tests
func (c *Client) WithURLs(apiURL, pageURL string) *Client {
	c.apiURL = apiURL
	c.pageURL = pageURL
	return c
}

// indexResponse is the alternative.me API envelope
type indexResponse struct {
	Data []struct {
		Value     string `json:"value"`
		Timestamp string `json:"timestamp"`
	} `json:"data"`
	Metadata struct {
		Error *string `json:"error"`
	} `json:"metadata"`
}

// FetchIndex fetches the daily index history clipped to the window. When
// the JSON API fails, the index page is scraped for today's value so a
// scan still gets a current reading.
func (c *Client) FetchIndex(ctx context.Context, name string, from, to time.Time) (contracts.TimeSeries, error) {
	series, err := c.fetchFromAPI(ctx, name, from, to)
	if err == nil {
		return series, nil
	}

	c.logger.WithError(err).Warn("Index API failed, scraping page for current value")

	value, scrapeErr := c.scrapeCurrent(ctx)
	if scrapeErr != nil {
		return contracts.TimeSeries{}, fmt.Errorf("index API failed (%v) and page scrape failed: %w", err, scrapeErr)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	return contracts.NewTimeSeries(name, []time.Time{today}, []float64{value}), nil
}

// fetchFromAPI pulls the full history; limit=0 returns everything
func (c *Client) fetchFromAPI(ctx context.Context, name string, from, to time.Time) (contracts.TimeSeries, error) {
	reqURL := fmt.Sprintf("%s/fng/?limit=0&format=json", c.apiURL)

	var resp indexResponse
	if err := c.httpClient.GetJSON(ctx, reqURL, &resp); err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("fetch index: %w", err)
	}
	if resp.Metadata.Error != nil {
		return contracts.TimeSeries{}, fmt.Errorf("index API error: %s", *resp.Metadata.Error)
	}
	if len(resp.Data) == 0 {
		return contracts.TimeSeries{}, fmt.Errorf("index API returned no data")
	}

	var dates []time.Time
	var values []float64
	for _, entry := range resp.Data {
		ts, err := strconv.ParseInt(entry.Timestamp, 10, 64)
		if err != nil {
			return contracts.TimeSeries{}, fmt.Errorf("parse index timestamp %q: %w", entry.Timestamp, err)
		}
		value, err := strconv.ParseFloat(entry.Value, 64)
		if err != nil {
			return contracts.TimeSeries{}, fmt.Errorf("parse index value %q: %w", entry.Value, err)
		}

		date := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		if date.Before(from) || date.After(to) {
			continue
		}
		dates = append(dates, date)
		values = append(values, value)
	}

	c.logger.WithField("count", len(values)).Debug("Fetched index history")

	// API returns newest first
	return contracts.NewTimeSeries(name, dates, values), nil
}

// scrapeCurrent extracts today's index value from the page
func (c *Client) scrapeCurrent(ctx context.Context) (float64, error) {
	resp, err := c.httpClient.Get(ctx, c.pageURL)
	if err != nil {
		return 0, fmt.Errorf("fetch index page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("parse index page: %w", err)
	}

	var value float64
	found := false
	doc.Find(".fng-circle").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return true
		}
		value = v
		found = true
		return false
	})

	if !found {
		return 0, fmt.Errorf("no index value found on page")
	}
	return value, nil
}
