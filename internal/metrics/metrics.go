// Package metrics holds the pure, stateless computations derived from
// fetched market data. Nothing here caches: callers recompute on read.
// Every division is guarded so a zero reference yields exactly 0, never
// NaN or Inf.
package metrics

import (
	"time"

	"github.com/francisforadreport/ethvsbtc/internal/models"
)

// Lookback names a historical reference point for percent-change
// computations.
type Lookback string

const (
	Yesterday Lookback = "yesterday"
	LastWeek  Lookback = "lastWeek"
	LastMonth Lookback = "lastMonth"
	LastYear  Lookback = "lastYear"
)

// targetDate resolves a lookback relative to now. AddDate normalizes
// month/year underflow (Mar 31 minus one month lands in early March),
// the same class of inexactness the calendar matching tolerates anyway.
func (l Lookback) targetDate(now time.Time) time.Time {
	switch l {
	case Yesterday:
		return now.AddDate(0, 0, -1)
	case LastWeek:
		return now.AddDate(0, 0, -7)
	case LastMonth:
		return now.AddDate(0, -1, 0)
	case LastYear:
		return now.AddDate(-1, 0, 0)
	}
	return now.AddDate(0, 0, -1)
}

// PercentChange computes the change from a historical reference close to the
// latest close, in percent. The reference is located by calendar
// date-component match against the lookback's target date; when no candle
// falls on that calendar day the series' first element is used instead.
// A zero reference clamps the result to 0.
func PercentChange(candles []models.Candle, lb Lookback, now time.Time) float64 {
	if len(candles) < 2 {
		return 0
	}

	target := lb.targetDate(now)
	ty, tm, td := target.Date()

	ref := candles[0]
	for _, c := range candles {
		y, m, d := c.Time.Date()
		if y == ty && m == tm && d == td {
			ref = c
			break
		}
	}

	latest := candles[len(candles)-1]
	if ref.Close == 0 {
		return 0
	}
	return (latest.Close - ref.Close) / ref.Close * 100
}

// Pressure derives the buy/sell split and signed pressure indicator from
// USD-notional order-book volumes. Pressure is BuyPct - 50, so it ranges
// from -50 (all asks) to +50 (all bids). Zero total volume yields zeros.
func Pressure(buyVolume, sellVolume float64) models.PressureReading {
	total := buyVolume + sellVolume
	r := models.PressureReading{
		BuyVolume:   buyVolume,
		SellVolume:  sellVolume,
		TotalVolume: total,
	}
	if total == 0 {
		return r
	}

	r.BuyPct = buyVolume / total * 100
	r.SellPct = 100 - r.BuyPct
	r.Pressure = r.BuyPct - 50
	return r
}

// SMA computes a trailing simple moving average. The result has the same
// length as values; entries before the window is full are nil.
func SMA(values []float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if period <= 0 {
		return out
	}

	for i := range values {
		if i < period-1 {
			continue
		}
		sum := 0.0
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}
		avg := sum / float64(period)
		out[i] = &avg
	}
	return out
}

// RatioChange is the percent move of the price ratio across the current
// ring-buffer contents.
func RatioChange(points []models.PricePoint) float64 {
	if len(points) < 2 {
		return 0
	}
	first := points[0].Ratio
	if first == 0 {
		return 0
	}
	last := points[len(points)-1].Ratio
	return (last - first) / first * 100
}

// RatioStats returns the high, low and mean ratio over the buffer contents.
func RatioStats(points []models.PricePoint) (high, low, avg float64) {
	if len(points) == 0 {
		return 0, 0, 0
	}

	high, low = points[0].Ratio, points[0].Ratio
	sum := 0.0
	for _, p := range points {
		if p.Ratio > high {
			high = p.Ratio
		}
		if p.Ratio < low {
			low = p.Ratio
		}
		sum += p.Ratio
	}
	return high, low, sum / float64(len(points))
}

// RelativeChanges maps a close-price series to percent changes versus its
// first element, the transform behind the comparison chart.
func RelativeChanges(closes []float64) []float64 {
	out := make([]float64, len(closes))
	if len(closes) == 0 || closes[0] == 0 {
		return out
	}

	first := closes[0]
	for i, p := range closes {
		out[i] = (p - first) / first * 100
	}
	return out
}

// ReserveEstimate converts 24h quote volume to an estimated on-exchange
// reserve quantity: 20% of daily volume divided by current price. This is
// an explicit heuristic, not a measured value.
func ReserveEstimate(volume, price float64) float64 {
	if price == 0 {
		return 0
	}
	return volume * 0.20 / price
}
