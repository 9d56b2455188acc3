package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/francisforadreport/ethvsbtc/internal/models"
	"github.com/francisforadreport/ethvsbtc/internal/scheduler"
	"github.com/francisforadreport/ethvsbtc/internal/store"
)

func testApp(st *store.Store) *fiber.App {
	app := fiber.New()
	h := NewDashboardHandler(st, scheduler.New(st))

	app.Get("/v1/snapshot", h.GetSnapshot)
	app.Get("/v1/sections/:name", h.GetSection)
	app.Post("/v1/range/:range", h.SetRange)
	app.Get("/v1/preferences/:symbol", h.GetPreference)
	app.Put("/v1/preferences/:symbol", h.SetPreference)
	app.Get("/health", h.Health)
	return app
}

func TestSnapshotUnavailableUntilPricesLoad(t *testing.T) {
	st := store.New()
	app := testApp(st)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d before first price fetch, want 503", resp.StatusCode)
	}

	st.SetAssets([]models.NormalizedAsset{
		{ID: "bitcoin", Symbol: "BTC", CurrentPrice: 50000},
		{ID: "ethereum", Symbol: "ETH", CurrentPrice: 2500},
	}, models.PricePoint{Ratio: 0.05})

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d after price fetch, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var snap models.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("snapshot not valid JSON: %v", err)
	}
	if len(snap.Assets) != 2 || snap.Assets[0].Symbol != "BTC" {
		t.Errorf("snapshot assets = %v", snap.Assets)
	}
}

func TestSectionRoutes(t *testing.T) {
	st := store.New()
	st.SetReserves(map[string]float64{"bitcoin": 4})
	app := testApp(st)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/sections/reserves", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("reserves section status = %d, want 200", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/sections/nope", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown section status = %d, want 404", resp.StatusCode)
	}
}

func TestCandleSectionCarriesDerivedMetrics(t *testing.T) {
	st := store.New()
	yesterday := time.Now().AddDate(0, 0, -1)
	st.SetCandles(map[string][]models.Candle{
		"bitcoin": {
			{Time: yesterday, Close: 100},
			{Time: time.Now(), Close: 110},
		},
	}, models.Range24h)
	app := testApp(st)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/sections/candles", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("candles section status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Data struct {
			Derived map[string]struct {
				Changes  map[string]float64 `json:"changes"`
				Relative []float64          `json:"relative"`
			} `json:"derived"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("candles section not valid JSON: %v", err)
	}

	btc := payload.Data.Derived["bitcoin"]
	if got := btc.Changes["yesterday"]; got != 10 {
		t.Errorf("yesterday change = %v, want 10 (100 -> 110)", got)
	}
	// no candle lands on the older calendar dates, so the first element
	// serves as the reference and yields the same move
	if got := btc.Changes["lastYear"]; got != 10 {
		t.Errorf("lastYear change = %v, want 10 via first-element fallback", got)
	}
	if len(btc.Relative) != 2 || btc.Relative[0] != 0 || btc.Relative[1] != 10 {
		t.Errorf("relative series = %v, want [0 10]", btc.Relative)
	}
}

func TestSetRangeValidation(t *testing.T) {
	st := store.New()
	app := testApp(st)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/v1/range/6w", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid range status = %d, want 400", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/v1/range/7d", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid range status = %d, want 200", resp.StatusCode)
	}
	if got := st.Range(); got != models.Range7d {
		t.Errorf("store range = %s, want 7d", got)
	}
}

func TestPreferenceRoundTrip(t *testing.T) {
	st := store.New()
	app := testApp(st)

	req := httptest.NewRequest(http.MethodPut, "/v1/preferences/BTC", strings.NewReader(`{"timeframe":"30m"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d, want 200", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/preferences/BTC", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"30m"`) {
		t.Errorf("preference body = %s, want stored 30m", body)
	}

	// invalid timeframe rejected
	req = httptest.NewRequest(http.MethodPut, "/v1/preferences/BTC", strings.NewReader(`{"timeframe":"2h"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid timeframe status = %d, want 400", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	app := testApp(store.New())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
}
