package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/leadlag/pkg/config"
	"github.com/wonny/leadlag/pkg/logger"
	"github.com/wonny/leadlag/pkg/redis"
)

const (
	defaultStreamURL = "wss://stream.binance.com:9443"

	reconnectDelay    = 5 * time.Second
	maxReconnectDelay = 5 * time.Minute

	pingInterval = 3 * time.Minute
	pongWait     = 10 * time.Minute
	writeWait    = 10 * time.Second
)

// Feed streams live mini-ticker closes for the configured symbols and
// keeps the latest close per symbol in the redis cache.
// ⭐ SSOT: Binance WebSocket 연결 관리는 여기서만
type Feed struct {
	cache     *redis.Cache
	logger    *logger.Logger
	streamURL string
	symbols   []string

	conn   *websocket.Conn
	connMu sync.RWMutex

	stopCh chan struct{}
	doneCh chan struct{}
}

// miniTicker is the 24h rolling mini-ticker stream payload
type miniTicker struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

// NewFeed creates a feed for the given symbols. The stream endpoint
// comes from config; an empty value falls back to the default.
func NewFeed(cfg config.BinanceConfig, cache *redis.Cache, log *logger.Logger, symbols []string) *Feed {
	streamURL := cfg.WSURL
	if streamURL == "" {
		streamURL = defaultStreamURL
	}
	return &Feed{
		cache:     cache,
		logger:    log.WithField("source", "binance-ws"),
		streamURL: streamURL,
		symbols:   symbols,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// CachedClose reads the latest streamed close for a symbol, if the feed
// has cached one recently.
func CachedClose(ctx context.Context, cache *redis.Cache, symbol string) (float64, bool) {
	var price float64
	hit, err := cache.Get(ctx, redis.LatestCloseKey(symbol), &price)
	if err != nil || !hit {
		return 0, false
	}
	return price, true
}

// Start connects and begins streaming. It returns after the initial
// connection succeeds; reads continue in the background until Stop.
func (f *Feed) Start(ctx context.Context) error {
	if len(f.symbols) == 0 {
		return fmt.Errorf("no symbols to stream")
	}

	f.logger.WithField("symbols", f.symbols).Info("Starting Binance stream")

	if err := f.connect(ctx); err != nil {
		return fmt.Errorf("initial connection failed: %w", err)
	}

	go f.readLoop(ctx)
	go f.pingLoop(ctx)

	return nil
}

// Stop closes the connection and waits for the read loop to drain
func (f *Feed) Stop() {
	f.logger.Info("Stopping Binance stream")

	close(f.stopCh)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.Close()
	}
	f.connMu.Unlock()

	<-f.doneCh
}

// connect dials the combined mini-ticker stream for all symbols
func (f *Feed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	streams := make([]string, len(f.symbols))
	for i, s := range f.symbols {
		streams[i] = strings.ToLower(s) + "@miniTicker"
	}
	wsURL := fmt.Sprintf("%s/ws/%s", f.streamURL, strings.Join(streams, "/"))

	f.logger.WithField("url", wsURL).Debug("Connecting to Binance WebSocket")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	f.conn = conn

	f.conn.SetReadDeadline(time.Now().Add(pongWait))
	f.conn.SetPongHandler(func(string) error {
		f.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	f.logger.Info("Connected to Binance WebSocket")
	return nil
}

// readLoop reads ticker messages until stopped
func (f *Feed) readLoop(ctx context.Context) {
	defer close(f.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stopCh:
			return
		default:
		}

		f.connMu.RLock()
		conn := f.conn
		f.connMu.RUnlock()

		if conn == nil {
			time.Sleep(1 * time.Second)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-f.stopCh:
				return
			default:
			}
			f.logger.WithError(err).Error("Failed to read message")
			f.reconnect(ctx)
			continue
		}

		if err := f.handleMessage(ctx, message); err != nil {
			f.logger.WithError(err).Error("Failed to handle ticker message")
		}
	}
}

// handleMessage caches the latest close from one mini-ticker event
func (f *Feed) handleMessage(ctx context.Context, message []byte) error {
	var tick miniTicker
	if err := json.Unmarshal(message, &tick); err != nil {
		return fmt.Errorf("unmarshal ticker: %w", err)
	}
	if tick.EventType != "24hrMiniTicker" {
		return nil
	}

	closePrice, err := strconv.ParseFloat(tick.Close, 64)
	if err != nil {
		return fmt.Errorf("parse close for %s: %w", tick.Symbol, err)
	}

	if err := f.cache.Set(ctx, redis.LatestCloseKey(tick.Symbol), closePrice, redis.TTLShort); err != nil {
		return fmt.Errorf("cache close for %s: %w", tick.Symbol, err)
	}

	f.logger.WithFields(map[string]interface{}{
		"symbol": tick.Symbol,
		"close":  closePrice,
	}).Debug("Cached latest close")

	return nil
}

// reconnect re-dials with exponential backoff until stopped
func (f *Feed) reconnect(ctx context.Context) {
	delay := reconnectDelay

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stopCh:
			return
		case <-time.After(delay):
		}

		if err := f.connect(ctx); err != nil {
			f.logger.WithError(err).WithField("retry_in", delay).Warn("Reconnect failed")
			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			continue
		}
		return
	}
}

// pingLoop keeps the connection alive
func (f *Feed) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stopCh:
			return
		case <-ticker.C:
		}

		f.connMu.RLock()
		conn := f.conn
		f.connMu.RUnlock()

		if conn == nil {
			continue
		}

		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			f.logger.WithError(err).Warn("Ping failed")
		}
	}
}
