package source

import (
	"context"
	"time"

	"github.com/francisforadreport/ethvsbtc/internal/models"
	"github.com/francisforadreport/ethvsbtc/internal/store"
	"github.com/francisforadreport/ethvsbtc/internal/synth"
)

// ETFAdapter produces the ETF flow section. There is no real data source:
// the series is generated by the synthetic generator on every invocation,
// sized by the currently selected time range. Refresh never fails.
type ETFAdapter struct {
	store  *store.Store
	gen    *synth.Generator
	assets []Asset
}

func NewETFAdapter(st *store.Store, gen *synth.Generator) *ETFAdapter {
	return &ETFAdapter{store: st, gen: gen, assets: Tracked}
}

func (a *ETFAdapter) Refresh(ctx context.Context) error {
	a.store.SetLoading(models.SectionETF, true)
	defer a.store.SetLoading(models.SectionETF, false)

	r := a.store.Range()
	now := time.Now()

	flows := make(map[string][]models.ETFFlowPoint, len(a.assets))
	for _, asset := range a.assets {
		flows[asset.ID] = a.gen.ETFFlows(r, now)
	}

	a.store.SetETFFlows(flows)
	return nil
}
