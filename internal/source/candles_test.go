package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/francisforadreport/ethvsbtc/internal/models"
	"github.com/francisforadreport/ethvsbtc/internal/store"
)

func klineBody(n int, startClose float64) string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		openTime := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(i) * time.Hour).UnixMilli()
		fmt.Fprintf(&b, `[%d,"100","110","90","%g","12.5",0,"0",0,"0","0","0"]`,
			openTime, startClose+float64(i))
	}
	b.WriteString("]")
	return b.String()
}

func TestCandleRangeParams(t *testing.T) {
	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

	p := paramsFor(models.Range7d, Bitcoin, now)
	if p.Interval != "1h" || p.Limit != 168 {
		t.Errorf("7d params = %s x %d, want 1h x 168", p.Interval, p.Limit)
	}
	if got := now.Sub(p.StartTime); got != 7*24*time.Hour {
		t.Errorf("7d start = %v before now, want 168h", got)
	}

	p = paramsFor(models.Range24h, Bitcoin, now)
	if p.Interval != "5m" || p.Limit != 288 {
		t.Errorf("24h params = %s x %d, want 5m x 288", p.Interval, p.Limit)
	}

	p = paramsFor(models.Range1m, Bitcoin, now)
	if p.Interval != "4h" || p.Limit != 180 {
		t.Errorf("1m params = %s x %d, want 4h x 180", p.Interval, p.Limit)
	}

	p = paramsFor(models.RangeAll, Bitcoin, now)
	if p.Interval != "1w" || p.Limit != 0 {
		t.Errorf("all params = %s x %d, want 1w, unbounded", p.Interval, p.Limit)
	}
	if !p.StartTime.Equal(Bitcoin.Genesis) {
		t.Errorf("all start = %v, want bitcoin genesis %v", p.StartTime, Bitcoin.Genesis)
	}
	if p.EndTime.IsZero() {
		t.Error("all range must carry an end time")
	}

	eth := paramsFor(models.RangeAll, Ethereum, now)
	if !eth.StartTime.Equal(Ethereum.Genesis) {
		t.Errorf("all start = %v, want ethereum genesis %v", eth.StartTime, Ethereum.Genesis)
	}
}

func TestRangeChangeIssuesNewFetchAndReplaces(t *testing.T) {
	var mu sync.Mutex
	queries := map[string][]string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sym := r.URL.Query().Get("symbol")
		queries[sym] = append(queries[sym], r.URL.RawQuery)
		mu.Unlock()
		// distinguishable closes per range, so replacement is observable
		if r.URL.Query().Get("interval") == "1h" {
			fmt.Fprint(w, klineBody(10, 500))
			return
		}
		fmt.Fprint(w, klineBody(10, 100))
	}))
	defer srv.Close()

	st := store.New()
	adapter := NewCandleAdapter(testClient(), st, srv.URL)
	ctx := context.Background()

	if err := adapter.RefreshRange(ctx, models.Range24h); err != nil {
		t.Fatalf("24h refresh failed: %v", err)
	}
	before := st.Snapshot().Candles

	st.SetRange(models.Range7d)
	if err := adapter.RefreshRange(ctx, models.Range7d); err != nil {
		t.Fatalf("7d refresh failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	btcQueries := queries["BTCUSDT"]
	if len(btcQueries) != 2 {
		t.Fatalf("BTC fetched %d times, want 2", len(btcQueries))
	}
	last := btcQueries[1]
	if !strings.Contains(last, "interval=1h") || !strings.Contains(last, "limit=168") {
		t.Errorf("7d fetch query = %q, want interval=1h and limit=168", last)
	}

	after := st.Snapshot().Candles
	if len(after["bitcoin"]) != 10 || len(before["bitcoin"]) != 10 {
		t.Fatal("both fetches should land 10 candles")
	}
	// fully replaced, never merged: every close now comes from the 7d fetch
	if before["bitcoin"][0].Close != 100 {
		t.Errorf("24h series first close = %v, want 100", before["bitcoin"][0].Close)
	}
	if after["bitcoin"][0].Close != 500 || after["bitcoin"][9].Close != 509 {
		t.Errorf("7d series closes = %v..%v, want 500..509 with no 24h leftovers",
			after["bitcoin"][0].Close, after["bitcoin"][9].Close)
	}
}

func TestCandleFailureRetainsPriorSeries(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, klineBody(5, 100))
	}))
	defer srv.Close()

	st := store.New()
	adapter := NewCandleAdapter(testClient(), st, srv.URL)
	ctx := context.Background()

	if err := adapter.Refresh(ctx); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}

	healthy = false
	if err := adapter.Refresh(ctx); err == nil {
		t.Fatal("second refresh should fail")
	}

	if got := len(st.Snapshot().Candles["bitcoin"]); got != 5 {
		t.Errorf("prior series length = %d after failure, want 5", got)
	}
}

func TestDownsampleFixedStride(t *testing.T) {
	candles := make([]models.Candle, 1500)
	for i := range candles {
		candles[i].Close = float64(i)
	}

	out := downsample(candles, 500)
	if len(out) != 500 {
		t.Fatalf("downsampled to %d points, want 500", len(out))
	}
	// stride of 3: every third candle survives
	if out[0].Close != 0 || out[1].Close != 3 || out[499].Close != 1497 {
		t.Errorf("stride broken: got %v, %v, ..., %v", out[0].Close, out[1].Close, out[499].Close)
	}

	short := make([]models.Candle, 400)
	if got := downsample(short, 500); len(got) != 400 {
		t.Errorf("series under the cap must pass through, got %d", len(got))
	}
}
