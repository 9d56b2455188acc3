package models

import "time"

// TimeRange selects how far back candle history reaches.
type TimeRange string

const (
	Range24h TimeRange = "24h"
	Range7d  TimeRange = "7d"
	Range1m  TimeRange = "1m"
	RangeAll TimeRange = "all"
)

// Valid reports whether r is one of the supported ranges.
func (r TimeRange) Valid() bool {
	switch r {
	case Range24h, Range7d, Range1m, RangeAll:
		return true
	}
	return false
}

// Section names used for freshness, loading and error tracking.
const (
	SectionPrices   = "prices"
	SectionPressure = "pressure"
	SectionReserves = "reserves"
	SectionETF      = "etf"
	SectionNews     = "news"
	SectionCandles  = "candles"
)

type NormalizedAsset struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	CurrentPrice   float64 `json:"current_price"`
	ChangePct24h   float64 `json:"price_change_percentage_24h"`
	QuoteVolume24h float64 `json:"quote_volume_24h"`
	Image          string  `json:"image"`
}

// PricePoint is one sample of the quote/base price ratio (ETH/BTC).
type PricePoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Ratio      float64   `json:"ratio"`
	BasePrice  float64   `json:"base_price"`
	QuotePrice float64   `json:"quote_price"`
}

// PressureReading is the order-book imbalance computed from one depth fetch.
type PressureReading struct {
	BuyVolume   float64 `json:"buy_volume"`  // USD-notional sum over bids
	SellVolume  float64 `json:"sell_volume"` // USD-notional sum over asks
	BuyPct      float64 `json:"buy_pct"`
	SellPct     float64 `json:"sell_pct"`
	Pressure    float64 `json:"pressure"` // BuyPct - 50, range [-50, +50]
	TotalVolume float64 `json:"total_volume"`
}

// PressurePoint is one entry of a pressure lookback window.
// MA10 is nil until ten points are available.
type PressurePoint struct {
	Time        time.Time `json:"time"`
	Pressure    float64   `json:"pressure"`
	BuyPct      float64   `json:"buy_pct"`
	SellPct     float64   `json:"sell_pct"`
	TotalVolume float64   `json:"total_volume"`
	MA10        *float64  `json:"ma10"`
}

// AssetPressure bundles the live reading with its lookback windows,
// keyed by timeframe label ("5m", "30m", "1h").
type AssetPressure struct {
	Current    PressureReading            `json:"current"`
	Timeframes map[string][]PressurePoint `json:"timeframes"`
}

type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

type ETFFlowPoint struct {
	Date    time.Time `json:"date"`
	Inflow  float64   `json:"inflow"`
	Outflow float64   `json:"outflow"`
	NetFlow float64   `json:"net_flow"` // Inflow - Outflow
	Price   float64   `json:"price"`
}

type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Image       string    `json:"image"`
	PublishedAt time.Time `json:"published_at"`
}

// SectionStatus carries the per-section flags exposed to the read side.
// UpdatedAt is the freshness timestamp: set on success only, never cleared,
// so a permanently failing section keeps showing its last-known-good time.
type SectionStatus struct {
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Snapshot is the immutable view handed to the presentation layer.
type Snapshot struct {
	Assets       []NormalizedAsset         `json:"assets"`
	RatioHistory []PricePoint              `json:"ratio_history"`
	Pressure     map[string]AssetPressure  `json:"pressure"`
	Reserves     map[string]float64        `json:"reserves"`
	ETFFlows     map[string][]ETFFlowPoint `json:"etf_flows"`
	News         []NewsItem                `json:"news"`
	Candles      map[string][]Candle       `json:"candles"`
	Range        TimeRange                 `json:"range"`
	Sections     map[string]SectionStatus  `json:"sections"`
	InitialLoad  bool                      `json:"initial_load_complete"`
	Error        string                    `json:"error,omitempty"` // set while price data has never loaded
}
