package contracts

import (
	"context"
	"time"
)

// SourceKind identifies a supported external data source. The set is
// closed: dispatch goes through an injected lookup, not a global registry.
type SourceKind string

const (
	SourceBinance SourceKind = "binance"
	SourceYahoo   SourceKind = "yahoo"
	SourceFRED    SourceKind = "fred"
	SourceFNG     SourceKind = "fng"
	SourceTrends  SourceKind = "trends"
)

// Valid reports whether the kind is one of the known sources
func (k SourceKind) Valid() bool {
	switch k {
	case SourceBinance, SourceYahoo, SourceFRED, SourceFNG, SourceTrends:
		return true
	}
	return false
}

// SeriesSpec describes one configured series and where to fetch it from
type SeriesSpec struct {
	Name     string     `yaml:"name" json:"name"`
	Source   SourceKind `yaml:"source" json:"source"`
	Symbol   string     `yaml:"symbol,omitempty" json:"symbol,omitempty"`     // binance/yahoo
	SeriesID string     `yaml:"series_id,omitempty" json:"series_id,omitempty"` // fred
	Keyword  string     `yaml:"keyword,omitempty" json:"keyword,omitempty"`   // trends
}

// Fetcher retrieves one series for a date window
// ⭐ SSOT: 외부 소스 수집 인터페이스
type Fetcher interface {
	Fetch(ctx context.Context, spec SeriesSpec, from, to time.Time) (TimeSeries, error)
}

// ObservationRepository persists raw fetched observations
type ObservationRepository interface {
	SaveSeries(ctx context.Context, series TimeSeries) error
	GetSeries(ctx context.Context, name string, from, to time.Time) (TimeSeries, error)
	ListSeries(ctx context.Context) ([]SeriesCoverage, error)
}

// SeriesCoverage summarizes what is stored for one series
type SeriesCoverage struct {
	Name  string    `json:"name"`
	Count int       `json:"count"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// ScanRepository persists completed scan results
type ScanRepository interface {
	SaveResult(ctx context.Context, result *ScanResult) (int64, error)
	GetLatestResult(ctx context.Context) (*ScanResult, error)
}

// Scanner runs one full lead-lag scan over already-fetched series
type Scanner interface {
	Scan(ctx context.Context, raw map[string]TimeSeries, target string, maxLag, topN int) (*ScanResult, error)
}
