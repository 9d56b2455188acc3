// Package synth fabricates time series the upstream APIs do not provide:
// order-book pressure lookback windows and ETF flow history. Keeping all
// fabrication here means a real data source can replace it later without
// touching the scheduler or store contracts.
package synth

import (
	"math/rand/v2"
	"time"

	"github.com/francisforadreport/ethvsbtc/internal/metrics"
	"github.com/francisforadreport/ethvsbtc/internal/models"
)

const (
	windowPoints = 30

	baseInflow  = 250_000_000.0
	baseOutflow = 150_000_000.0
)

// pressure lookback windows fabricated from a single live reading
var pressureTimeframes = []struct {
	label    string
	interval time.Duration
}{
	{"5m", 5 * time.Minute},
	{"30m", 30 * time.Minute},
	{"1h", time.Hour},
}

// Generator produces synthetic series. A nil source seeds from the clock;
// tests pass a fixed-seed source for determinism.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Generator{rng: rng}
}

// PressureWindows expands one depth reading into 5m/30m/1h lookback windows
// of 30 points each, jittering the reading by a per-point factor in
// [0.9, 1.1). Each window carries a 10-period moving average, nil before
// the tenth point. The points are not real history.
func (g *Generator) PressureWindows(current models.PressureReading, now time.Time) map[string][]models.PressurePoint {
	windows := make(map[string][]models.PressurePoint, len(pressureTimeframes))

	for _, tf := range pressureTimeframes {
		points := make([]models.PressurePoint, windowPoints)
		for i := 0; i < windowPoints; i++ {
			factor := 0.9 + g.rng.Float64()*0.2
			// index 0 is oldest: now minus (points-1-i) intervals
			points[i] = models.PressurePoint{
				Time:        now.Add(-time.Duration(windowPoints-1-i) * tf.interval),
				Pressure:    current.Pressure * factor,
				BuyPct:      current.BuyPct * factor,
				SellPct:     current.SellPct * factor,
				TotalVolume: current.TotalVolume / windowPoints,
			}
		}

		pressures := make([]float64, windowPoints)
		for i, p := range points {
			pressures[i] = p.Pressure
		}
		for i, ma := range metrics.SMA(pressures, 10) {
			points[i].MA10 = ma
		}

		windows[tf.label] = points
	}

	return windows
}

// ETFFlows generates a flow series sized by the selected range. Trend
// direction and strength are drawn once per call and held constant across
// the series, with a business-hours activity bump and multiplicative noise
// on top. Every call regenerates from scratch; there is no real data to be
// idempotent about.
func (g *Generator) ETFFlows(r models.TimeRange, now time.Time) []models.ETFFlowPoint {
	count, step := flowShape(r)

	direction := 1.0
	if g.rng.Float64() < 0.5 {
		direction = -1.0
	}
	strength := 0.01 + g.rng.Float64()*0.04

	points := make([]models.ETFFlowPoint, count)
	for i := 0; i < count; i++ {
		ts := now.Add(-time.Duration(count-1-i) * step)
		progress := float64(i) / float64(count)
		// total drift tops out at +-50%, keeping flows positive
		trend := 1 + direction*strength*10*progress

		activity := 1.0
		if isBusinessHours(ts) {
			activity = 1.25
		}

		inflow := baseInflow * trend * activity * noise(g.rng)
		outflow := baseOutflow * activity * noise(g.rng)

		points[i] = models.ETFFlowPoint{
			Date:    ts,
			Inflow:  inflow,
			Outflow: outflow,
			NetFlow: inflow - outflow,
			Price:   40000 + g.rng.Float64()*1000,
		}
	}

	return points
}

func flowShape(r models.TimeRange) (count int, step time.Duration) {
	switch r {
	case models.Range24h:
		return 24, time.Hour
	case models.Range7d:
		return 7, 24 * time.Hour
	case models.Range1m:
		return 30, 24 * time.Hour
	case models.RangeAll:
		return 90, 24 * time.Hour
	}
	return 24, time.Hour
}

func noise(rng *rand.Rand) float64 {
	return 0.85 + rng.Float64()*0.30
}

func isBusinessHours(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := t.Hour()
	return h >= 9 && h < 17
}
