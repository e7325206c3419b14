package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: all environment variables are read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External sources
	Binance BinanceConfig
	FRED    FREDConfig
	Trends  TrendsConfig

	// Scan parameters
	Scan ScanConfig

	// Series registry file (YAML)
	SeriesFile string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// BinanceConfig holds Binance API configuration. Which symbols are
// fetched comes from the series registry file, not from here.
type BinanceConfig struct {
	BaseURL        string
	WSURL          string
	MaxKlines      int
	RequestsPerSec float64
}

// FREDConfig holds FRED (Federal Reserve Economic Data) API configuration
type FREDConfig struct {
	APIKey  string
	BaseURL string
}

// TrendsConfig holds Google Trends configuration
type TrendsConfig struct {
	BaseURL  string
	CacheTTL time.Duration
}

// ScanConfig holds lead-lag scan parameters
type ScanConfig struct {
	TargetSeries string // series the others are tested for leading
	MaxLag       int    // symmetric lag window in days
	TopN         int    // relationships kept for the composite
	LookbackDays int    // fetch window
	MaxFillDays  int    // consecutive days a gap may be forward-filled
	MinOverlap   int    // minimum shared dates after alignment
	MinSamples   int    // minimum paired observations per lag
	Workers      int    // pair-correlation worker pool size
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "leadlag"),
			User:            getEnv("DB_USER", "leadlag"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External sources
		Binance: BinanceConfig{
			BaseURL:        getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
			WSURL:          getEnv("BINANCE_WS_URL", "wss://stream.binance.com:9443"),
			MaxKlines:      getEnvAsInt("MAX_KLINES", 1000),
			RequestsPerSec: getEnvAsFloat("BINANCE_REQUESTS_PER_SEC", 6.0),
		},

		FRED: FREDConfig{
			APIKey:  getEnv("FRED_API_KEY", ""),
			BaseURL: getEnv("FRED_BASE_URL", "https://api.stlouisfed.org"),
		},

		Trends: TrendsConfig{
			BaseURL:  getEnv("TRENDS_BASE_URL", "https://trends.google.com"),
			CacheTTL: getEnvAsDuration("TRENDS_CACHE_TTL", "24h"),
		},

		// Scan parameters
		Scan: ScanConfig{
			TargetSeries: getEnv("TARGET_SERIES", "BTCUSD"),
			MaxLag:       getEnvAsInt("MAX_LAG", 5),
			TopN:         getEnvAsInt("TOP_N", 2),
			LookbackDays: getEnvAsInt("LOOKBACK_DAYS", 365),
			MaxFillDays:  getEnvAsInt("MAX_FILL_DAYS", 7),
			MinOverlap:   getEnvAsInt("MIN_OVERLAP", 10),
			MinSamples:   getEnvAsInt("MIN_SAMPLES", 10),
			Workers:      getEnvAsInt("SCAN_WORKERS", 4),
		},

		SeriesFile: getEnv("SERIES_FILE", "data_sources.yaml"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set. DATABASE_URL
// is deliberately not checked here: ad-hoc scans run without a database,
// so the pool constructor enforces it instead.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scan.MaxLag <= 0 {
		return fmt.Errorf("MAX_LAG must be positive")
	}
	if c.Scan.TopN <= 0 {
		return fmt.Errorf("TOP_N must be positive")
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("SCAN_WORKERS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
