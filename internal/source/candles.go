package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/francisforadreport/ethvsbtc/internal/fetch"
	"github.com/francisforadreport/ethvsbtc/internal/models"
	"github.com/francisforadreport/ethvsbtc/internal/store"
)

// maxSeriesPoints bounds how many candles a series may carry; longer
// results are thinned by fixed-stride filtering.
const maxSeriesPoints = 500

// klineParams is the exchange query resolved from a time range. A zero
// Limit means unbounded (the "all" range, bounded by start/end instead).
type klineParams struct {
	Interval  string
	Limit     int
	StartTime time.Time
	EndTime   time.Time
}

func paramsFor(r models.TimeRange, asset Asset, now time.Time) klineParams {
	switch r {
	case models.Range7d:
		return klineParams{Interval: "1h", Limit: 168, StartTime: now.Add(-7 * 24 * time.Hour)}
	case models.Range1m:
		return klineParams{Interval: "4h", Limit: 180, StartTime: now.Add(-30 * 24 * time.Hour)}
	case models.RangeAll:
		return klineParams{Interval: "1w", StartTime: asset.Genesis, EndTime: now}
	default: // 24h
		return klineParams{Interval: "5m", Limit: 288, StartTime: now.Add(-24 * time.Hour)}
	}
}

// CandleAdapter fetches candlestick history for both assets. The periodic
// Refresh re-fetches the currently selected range; RefreshRange serves the
// out-of-band fetch fired when the user switches ranges. The series is
// replaced wholesale, never merged.
type CandleAdapter struct {
	client  *fetch.Client
	store   *store.Store
	baseURL string
	assets  []Asset
}

func NewCandleAdapter(client *fetch.Client, st *store.Store, baseURL string) *CandleAdapter {
	return &CandleAdapter{client: client, store: st, baseURL: baseURL, assets: Tracked}
}

func (a *CandleAdapter) Refresh(ctx context.Context) error {
	return a.RefreshRange(ctx, a.store.Range())
}

func (a *CandleAdapter) RefreshRange(ctx context.Context, r models.TimeRange) error {
	a.store.SetLoading(models.SectionCandles, true)
	defer a.store.SetLoading(models.SectionCandles, false)

	now := time.Now()
	series, err := forEachAsset(ctx, a.assets, func(ctx context.Context, asset Asset) ([]models.Candle, error) {
		return a.fetchSeries(ctx, asset, paramsFor(r, asset, now))
	})
	if err != nil {
		return fmt.Errorf("failed to fetch historical data: %w", err)
	}

	a.store.SetCandles(series, r)
	return nil
}

func (a *CandleAdapter) fetchSeries(ctx context.Context, asset Asset, p klineParams) ([]models.Candle, error) {
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&startTime=%d",
		a.baseURL, asset.Pair, p.Interval, p.StartTime.UnixMilli())
	if p.Limit > 0 {
		url += fmt.Sprintf("&limit=%d", p.Limit)
	}
	if !p.EndTime.IsZero() {
		url += fmt.Sprintf("&endTime=%d", p.EndTime.UnixMilli())
	}

	body, err := a.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("klines request failed: %w", err)
	}

	// klines come back as positional arrays mixing numbers and strings:
	// [openTime, "open", "high", "low", "close", "volume", ...]
	var raw [][]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse klines response: %w", err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		candles = append(candles, models.Candle{
			Time:   time.UnixMilli(int64(klineFloat(k[0]))),
			Open:   klineFloat(k[1]),
			High:   klineFloat(k[2]),
			Low:    klineFloat(k[3]),
			Close:  klineFloat(k[4]),
			Volume: klineFloat(k[5]),
		})
	}

	return downsample(candles, maxSeriesPoints), nil
}

func klineFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	}
	return 0
}

// downsample thins a series by fixed stride until it fits max points.
func downsample(candles []models.Candle, max int) []models.Candle {
	if len(candles) <= max {
		return candles
	}

	step := len(candles) / max
	out := make([]models.Candle, 0, len(candles)/step+1)
	for i := 0; i < len(candles); i += step {
		out = append(out, candles[i])
	}
	return out
}
