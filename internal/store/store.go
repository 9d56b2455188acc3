// Package store holds the latest normalized output of every adapter plus
// the rolling ratio history. Adapters are the only writers; the API layer
// only reads snapshots. Each setter is an atomic replace-or-append of its
// field under the lock, so readers never observe a partial update.
package store

import (
	"sync"
	"time"

	"github.com/francisforadreport/ethvsbtc/internal/models"
)

// DefaultTimeframe is the pressure chart timeframe used before a client
// stores a preference.
const DefaultTimeframe = "5m"

type Store struct {
	mu sync.RWMutex

	assets    []models.NormalizedAsset
	ratio     *Ring
	pressure  map[string]models.AssetPressure
	reserves  map[string]float64
	etfFlows  map[string][]models.ETFFlowPoint
	news      []models.NewsItem
	candles   map[string][]models.Candle
	timeRange models.TimeRange

	sections    map[string]models.SectionStatus
	prefs       map[string]string
	initialLoad bool
	closed      bool
}

func New() *Store {
	sections := make(map[string]models.SectionStatus)
	for _, name := range []string{
		models.SectionPrices,
		models.SectionPressure,
		models.SectionReserves,
		models.SectionETF,
		models.SectionNews,
		models.SectionCandles,
	} {
		sections[name] = models.SectionStatus{}
	}

	return &Store{
		ratio:     NewRing(RingCapacity),
		timeRange: models.Range24h,
		sections:  sections,
		prefs:     make(map[string]string),
	}
}

// Close stops accepting writes. A fetch already in flight when the owner
// tears down may still complete; its write lands here and is dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Store) SetLoading(section string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	st := s.sections[section]
	st.Loading = loading
	s.sections[section] = st
}

// SetAssets replaces the asset records wholesale and appends one ratio
// sample, as a single atomic update. Freshness and the section error reset
// only here, on success.
func (s *Store) SetAssets(assets []models.NormalizedAsset, point models.PricePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.assets = assets
	s.ratio.Append(point)
	s.markSuccess(models.SectionPrices)
}

// SetSectionError records a section-local failure. Prior data and the
// freshness timestamp are retained: staleness is visible, not hidden.
func (s *Store) SetSectionError(section string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	st := s.sections[section]
	st.Error = err.Error()
	s.sections[section] = st
}

func (s *Store) SetPressure(pressure map[string]models.AssetPressure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pressure = pressure
	s.markSuccess(models.SectionPressure)
}

func (s *Store) SetReserves(reserves map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.reserves = reserves
	s.markSuccess(models.SectionReserves)
}

func (s *Store) SetETFFlows(flows map[string][]models.ETFFlowPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.etfFlows = flows
	s.markSuccess(models.SectionETF)
}

func (s *Store) SetNews(items []models.NewsItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.news = items
	s.markSuccess(models.SectionNews)
}

// SetNewsPlaceholder substitutes the news list after a failed or empty
// fetch. Unlike SetNews it is not a success: freshness keeps pointing at
// the last real fetch.
func (s *Store) SetNewsPlaceholder(item models.NewsItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.news = []models.NewsItem{item}
}

// SetCandles replaces the candle series wholesale, but only when the fetch
// was issued for the currently selected range. A response that raced a
// range switch is stale and dropped.
func (s *Store) SetCandles(candles map[string][]models.Candle, fetchedFor models.TimeRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || fetchedFor != s.timeRange {
		return
	}
	s.candles = candles
	s.markSuccess(models.SectionCandles)
}

func (s *Store) SetRange(r models.TimeRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.timeRange = r
}

func (s *Store) Range() models.TimeRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeRange
}

func (s *Store) MarkInitialLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.initialLoad = true
}

// Preference returns the stored pressure-chart timeframe for a symbol.
func (s *Store) Preference(symbol string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tf, ok := s.prefs[symbol]; ok {
		return tf
	}
	return DefaultTimeframe
}

func (s *Store) SetPreference(symbol, timeframe string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.prefs[symbol] = timeframe
}

// Snapshot returns a deep copy of the current view model. The primary
// render is blocked only by missing price data: until the spot adapter has
// succeeded once, the snapshot-level Error mirrors the prices section.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.Snapshot{
		Assets:       append([]models.NormalizedAsset(nil), s.assets...),
		RatioHistory: s.ratio.Points(),
		Pressure:     copyPressure(s.pressure),
		Reserves:     copyMap(s.reserves),
		ETFFlows:     copyFlows(s.etfFlows),
		News:         append([]models.NewsItem(nil), s.news...),
		Candles:      copyCandles(s.candles),
		Range:        s.timeRange,
		Sections:     copyMap(s.sections),
		InitialLoad:  s.initialLoad,
	}

	if len(s.assets) == 0 {
		snap.Error = s.sections[models.SectionPrices].Error
	}
	return snap
}

func (s *Store) markSuccess(section string) {
	st := s.sections[section]
	st.Error = ""
	st.UpdatedAt = time.Now()
	s.sections[section] = st
}

func copyMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyPressure(m map[string]models.AssetPressure) map[string]models.AssetPressure {
	if m == nil {
		return nil
	}
	out := make(map[string]models.AssetPressure, len(m))
	for asset, ap := range m {
		frames := make(map[string][]models.PressurePoint, len(ap.Timeframes))
		for tf, pts := range ap.Timeframes {
			frames[tf] = append([]models.PressurePoint(nil), pts...)
		}
		out[asset] = models.AssetPressure{Current: ap.Current, Timeframes: frames}
	}
	return out
}

func copyFlows(m map[string][]models.ETFFlowPoint) map[string][]models.ETFFlowPoint {
	if m == nil {
		return nil
	}
	out := make(map[string][]models.ETFFlowPoint, len(m))
	for k, v := range m {
		out[k] = append([]models.ETFFlowPoint(nil), v...)
	}
	return out
}

func copyCandles(m map[string][]models.Candle) map[string][]models.Candle {
	if m == nil {
		return nil
	}
	out := make(map[string][]models.Candle, len(m))
	for k, v := range m {
		out[k] = append([]models.Candle(nil), v...)
	}
	return out
}
