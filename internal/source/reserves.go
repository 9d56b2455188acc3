package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/francisforadreport/ethvsbtc/internal/fetch"
	"github.com/francisforadreport/ethvsbtc/internal/metrics"
	"github.com/francisforadreport/ethvsbtc/internal/models"
	"github.com/francisforadreport/ethvsbtc/internal/store"
)

// FallbackReserves are the hard-coded estimates used when every provider
// fails. Availability wins over accuracy here: the field is never empty.
var FallbackReserves = map[string]float64{
	Bitcoin.ID:  10000,
	Ethereum.ID: 100000,
}

// ReserveProvider is one strategy for estimating on-exchange reserves.
// Providers are tried in order; the first success wins.
type ReserveProvider interface {
	Name() string
	Estimate(ctx context.Context) (map[string]float64, error)
}

// ReserveAdapter walks an ordered provider chain and falls back to
// constants on total failure. Refresh never returns an error.
type ReserveAdapter struct {
	store     *store.Store
	providers []ReserveProvider
}

func NewReserveAdapter(client *fetch.Client, st *store.Store, baseURL string) *ReserveAdapter {
	return &ReserveAdapter{
		store: st,
		providers: []ReserveProvider{
			&coinsProvider{client: client, baseURL: baseURL, assets: Tracked},
			&simplePriceProvider{client: client, baseURL: baseURL, assets: Tracked},
		},
	}
}

func (a *ReserveAdapter) Refresh(ctx context.Context) error {
	a.store.SetLoading(models.SectionReserves, true)
	defer a.store.SetLoading(models.SectionReserves, false)

	for _, p := range a.providers {
		estimates, err := p.Estimate(ctx)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Msg("reserve provider failed, trying next")
			continue
		}
		a.store.SetReserves(estimates)
		return nil
	}

	log.Warn().Msg("all reserve providers failed, using static fallback")
	a.store.SetReserves(copyReserves(FallbackReserves))
	return nil
}

// coinsProvider reads volume and price from the per-coin market data
// endpoint, one request per asset, concurrently.
type coinsProvider struct {
	client  *fetch.Client
	baseURL string
	assets  []Asset
}

func (p *coinsProvider) Name() string { return "coins" }

func (p *coinsProvider) Estimate(ctx context.Context) (map[string]float64, error) {
	return forEachAsset(ctx, p.assets, func(ctx context.Context, asset Asset) (float64, error) {
		url := fmt.Sprintf("%s/coins/%s", p.baseURL, asset.ID)

		body, err := p.client.Get(ctx, url)
		if err != nil {
			return 0, fmt.Errorf("coins request failed: %w", err)
		}

		var raw struct {
			MarketData struct {
				TotalVolume  struct{ USD float64 `json:"usd"` } `json:"total_volume"`
				CurrentPrice struct{ USD float64 `json:"usd"` } `json:"current_price"`
			} `json:"market_data"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return 0, fmt.Errorf("failed to parse coins response: %w", err)
		}
		if raw.MarketData.CurrentPrice.USD == 0 {
			return 0, fmt.Errorf("zero price for %s", asset.ID)
		}

		return metrics.ReserveEstimate(raw.MarketData.TotalVolume.USD, raw.MarketData.CurrentPrice.USD), nil
	})
}

// simplePriceProvider is the alternate endpoint: one request covering both
// assets, same estimate formula.
type simplePriceProvider struct {
	client  *fetch.Client
	baseURL string
	assets  []Asset
}

func (p *simplePriceProvider) Name() string { return "simple-price" }

func (p *simplePriceProvider) Estimate(ctx context.Context) (map[string]float64, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s,%s&vs_currencies=usd&include_24hr_vol=true",
		p.baseURL, Bitcoin.ID, Ethereum.ID)

	body, err := p.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("simple price request failed: %w", err)
	}

	var raw map[string]struct {
		USD    float64 `json:"usd"`
		Vol24h float64 `json:"usd_24h_vol"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse simple price response: %w", err)
	}

	estimates := make(map[string]float64, len(p.assets))
	for _, asset := range p.assets {
		entry, ok := raw[asset.ID]
		if !ok || entry.USD == 0 {
			return nil, fmt.Errorf("missing price data for %s", asset.ID)
		}
		estimates[asset.ID] = metrics.ReserveEstimate(entry.Vol24h, entry.USD)
	}
	return estimates, nil
}

func copyReserves(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
