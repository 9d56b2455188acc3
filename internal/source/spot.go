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

// SpotAdapter fetches 24h ticker stats for both assets and derives the
// ETH/BTC price ratio. This is the only adapter whose failure is
// dashboard-fatal: without price data there is nothing to render, so its
// error is made user-visible through the store.
type SpotAdapter struct {
	client  *fetch.Client
	store   *store.Store
	baseURL string
	assets  []Asset
}

func NewSpotAdapter(client *fetch.Client, st *store.Store, baseURL string) *SpotAdapter {
	return &SpotAdapter{client: client, store: st, baseURL: baseURL, assets: Tracked}
}

func (a *SpotAdapter) Refresh(ctx context.Context) error {
	a.store.SetLoading(models.SectionPrices, true)
	defer a.store.SetLoading(models.SectionPrices, false)

	normalized, err := forEachAsset(ctx, a.assets, a.fetchTicker)
	if err != nil {
		err = fmt.Errorf("failed to fetch crypto data: %w", err)
		a.store.SetSectionError(models.SectionPrices, err)
		return err
	}

	assets := make([]models.NormalizedAsset, 0, len(a.assets))
	for _, asset := range a.assets {
		assets = append(assets, normalized[asset.ID])
	}

	base := normalized[Bitcoin.ID]
	quote := normalized[Ethereum.ID]

	ratio := 0.0
	if base.CurrentPrice != 0 {
		ratio = quote.CurrentPrice / base.CurrentPrice
	}

	a.store.SetAssets(assets, models.PricePoint{
		Timestamp:  time.Now(),
		Ratio:      ratio,
		BasePrice:  base.CurrentPrice,
		QuotePrice: quote.CurrentPrice,
	})
	return nil
}

func (a *SpotAdapter) fetchTicker(ctx context.Context, asset Asset) (models.NormalizedAsset, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", a.baseURL, asset.Pair)

	body, err := a.client.Get(ctx, url)
	if err != nil {
		return models.NormalizedAsset{}, fmt.Errorf("ticker request failed: %w", err)
	}

	var raw struct {
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
		QuoteVolume        string `json:"quoteVolume"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.NormalizedAsset{}, fmt.Errorf("failed to parse ticker response: %w", err)
	}

	price, err := strconv.ParseFloat(raw.LastPrice, 64)
	if err != nil {
		return models.NormalizedAsset{}, fmt.Errorf("failed to parse last price: %w", err)
	}
	changePct, _ := strconv.ParseFloat(raw.PriceChangePercent, 64)
	quoteVol, _ := strconv.ParseFloat(raw.QuoteVolume, 64)

	return models.NormalizedAsset{
		ID:             asset.ID,
		Name:           asset.Name,
		Symbol:         asset.Symbol,
		CurrentPrice:   price,
		ChangePct24h:   changePct,
		QuoteVolume24h: quoteVol,
		Image:          asset.Image,
	}, nil
}
