package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/francisforadreport/ethvsbtc/internal/fetch"
	"github.com/francisforadreport/ethvsbtc/internal/metrics"
	"github.com/francisforadreport/ethvsbtc/internal/models"
	"github.com/francisforadreport/ethvsbtc/internal/store"
	"github.com/francisforadreport/ethvsbtc/internal/synth"
)

const depthLevels = 100

// PressureAdapter derives order-book buy/sell pressure from the top depth
// levels of both assets. Pressure is best effort: failures are logged by
// the scheduler and prior state is retained, with no user-visible error.
type PressureAdapter struct {
	client  *fetch.Client
	store   *store.Store
	gen     *synth.Generator
	baseURL string
	assets  []Asset
}

func NewPressureAdapter(client *fetch.Client, st *store.Store, gen *synth.Generator, baseURL string) *PressureAdapter {
	return &PressureAdapter{client: client, store: st, gen: gen, baseURL: baseURL, assets: Tracked}
}

func (a *PressureAdapter) Refresh(ctx context.Context) error {
	a.store.SetLoading(models.SectionPressure, true)
	defer a.store.SetLoading(models.SectionPressure, false)

	readings, err := forEachAsset(ctx, a.assets, a.fetchReading)
	if err != nil {
		return fmt.Errorf("failed to fetch market pressure: %w", err)
	}

	now := time.Now()
	pressure := make(map[string]models.AssetPressure, len(readings))
	for id, reading := range readings {
		pressure[id] = models.AssetPressure{
			Current:    reading,
			Timeframes: a.gen.PressureWindows(reading, now),
		}
	}

	a.store.SetPressure(pressure)
	return nil
}

func (a *PressureAdapter) fetchReading(ctx context.Context, asset Asset) (models.PressureReading, error) {
	url := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=%d", a.baseURL, asset.Pair, depthLevels)

	body, err := a.client.Get(ctx, url)
	if err != nil {
		return models.PressureReading{}, fmt.Errorf("depth request failed: %w", err)
	}

	var raw struct {
		Bids [][]string `json:"bids"` // each entry: ["price", "quantity"]
		Asks [][]string `json:"asks"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.PressureReading{}, fmt.Errorf("failed to parse depth response: %w", err)
	}

	return metrics.Pressure(sumNotional(raw.Bids), sumNotional(raw.Asks)), nil
}

// sumNotional sums price*quantity across order book levels.
func sumNotional(levels [][]string) float64 {
	total := 0.0
	for _, level := range levels {
		if len(level) < 2 {
			continue
		}
		price, _ := strconv.ParseFloat(level[0], 64)
		qty, _ := strconv.ParseFloat(level[1], 64)
		total += price * qty
	}
	return total
}
