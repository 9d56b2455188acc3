package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/francisforadreport/ethvsbtc/internal/metrics"
	"github.com/francisforadreport/ethvsbtc/internal/models"
	"github.com/francisforadreport/ethvsbtc/internal/scheduler"
	"github.com/francisforadreport/ethvsbtc/internal/store"
)

var validTimeframes = map[string]bool{"5m": true, "30m": true, "1h": true}

type DashboardHandler struct {
	store *store.Store
	sched *scheduler.Scheduler
}

func NewDashboardHandler(st *store.Store, sched *scheduler.Scheduler) *DashboardHandler {
	return &DashboardHandler{store: st, sched: sched}
}

// Handles GET /v1/snapshot. Serves 503 until the spot adapter has
// succeeded at least once: without price data the dashboard cannot render.
func (h *DashboardHandler) GetSnapshot(c fiber.Ctx) error {
	snap := h.store.Snapshot()

	if len(snap.Assets) == 0 {
		if snap.Error != "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": snap.Error,
			})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "loading",
		})
	}

	return c.Status(fiber.StatusOK).JSON(snap)
}

// Handles GET /v1/sections/:name. Sections degrade independently, so each
// is addressable on its own together with its status flags. The ratio
// section folds in the derived change and high/low/avg stats, recomputed
// on every read.
func (h *DashboardHandler) GetSection(c fiber.Ctx) error {
	name := c.Params("name")
	snap := h.store.Snapshot()

	var data any
	switch name {
	case models.SectionPrices:
		data = snap.Assets
	case "ratio":
		high, low, avg := metrics.RatioStats(snap.RatioHistory)
		data = fiber.Map{
			"history":    snap.RatioHistory,
			"change_pct": metrics.RatioChange(snap.RatioHistory),
			"high":       high,
			"low":        low,
			"avg":        avg,
		}
		name = models.SectionPrices // ratio freshness follows the spot adapter
	case models.SectionPressure:
		data = snap.Pressure
	case models.SectionReserves:
		data = snap.Reserves
	case models.SectionETF:
		data = snap.ETFFlows
	case models.SectionNews:
		data = snap.News
	case models.SectionCandles:
		data = fiber.Map{
			"range":   snap.Range,
			"series":  snap.Candles,
			"derived": derivedCandleMetrics(snap.Candles, time.Now()),
		}
	default:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown section",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data":   data,
		"status": snap.Sections[name],
	})
}

// changeLookbacks are the reference points for the per-asset change cards,
// in display order.
var changeLookbacks = []metrics.Lookback{
	metrics.Yesterday,
	metrics.LastWeek,
	metrics.LastMonth,
	metrics.LastYear,
}

// derivedCandleMetrics computes, per asset, the percent change against each
// lookback and the relative-change series behind the comparison chart.
// Recomputed on every read, like the ratio stats.
func derivedCandleMetrics(candles map[string][]models.Candle, now time.Time) fiber.Map {
	out := fiber.Map{}
	for id, series := range candles {
		closes := make([]float64, len(series))
		for i, c := range series {
			closes[i] = c.Close
		}

		changes := make(map[string]float64, len(changeLookbacks))
		for _, lb := range changeLookbacks {
			changes[string(lb)] = metrics.PercentChange(series, lb, now)
		}

		out[id] = fiber.Map{
			"changes":  changes,
			"relative": metrics.RelativeChanges(closes),
		}
	}
	return out
}

// Handles POST /v1/range/:range. Switching the range triggers an immediate
// candle re-fetch for both assets, outside the periodic timers.
func (h *DashboardHandler) SetRange(c fiber.Ctx) error {
	r := models.TimeRange(c.Params("range"))
	if !r.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "range must be one of 24h, 7d, 1m, all",
		})
	}

	log.Info().Str("range", string(r)).Msg("time range changed")

	if err := h.sched.SetRange(c.Context(), r); err != nil {
		// the range itself is switched; the periodic refresh will retry
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"range": r})
}

// Handles GET /v1/preferences/:symbol.
func (h *DashboardHandler) GetPreference(c fiber.Ctx) error {
	symbol := c.Params("symbol")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"symbol":    symbol,
		"timeframe": h.store.Preference(symbol),
	})
}

// Handles PUT /v1/preferences/:symbol with body {"timeframe": "30m"}.
func (h *DashboardHandler) SetPreference(c fiber.Ctx) error {
	symbol := c.Params("symbol")

	var req struct {
		Timeframe string `json:"timeframe"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if !validTimeframes[req.Timeframe] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "timeframe must be one of 5m, 30m, 1h",
		})
	}

	h.store.SetPreference(symbol, req.Timeframe)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"symbol":    symbol,
		"timeframe": req.Timeframe,
	})
}

// Handles GET /health.
func (h *DashboardHandler) Health(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
