package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"ichimoku-monitor/internal/ichimoku"
	"ichimoku-monitor/internal/market"
	"ichimoku-monitor/internal/monitor"
	"ichimoku-monitor/internal/state"
	"ichimoku-monitor/internal/strategy"
)

type staticFetcher struct {
	series market.Series
}

func (s *staticFetcher) Fetch(ctx context.Context, symbol, timeframe string, limit int) (market.Series, error) {
	return s.series, nil
}

func newTestServer(t *testing.T) (*Server, *monitor.Monitor) {
	t.Helper()

	rules := strategy.Rules{
		LongEntry: []strategy.Predicate{strategy.PriceAboveCloud, strategy.TenkanAboveKijun},
	}
	detector, err := strategy.NewDetector("api_test", ichimoku.DefaultParameters(), rules, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}

	store := state.NewStore(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
	tracker := state.NewTracker(store, zerolog.Nop())

	series := make(market.Series, 120)
	for i := range series {
		c := 100 + float64(i)
		series[i] = market.Kline{
			OpenTime: int64(i) * 4 * 3600 * 1000, Open: c, High: c + 1, Low: c - 1, Close: c,
			CloseTime: int64(i+1)*4*3600*1000 - 1,
		}
	}

	mon := monitor.New(monitor.Config{
		Symbols:    []string{"BTC/USDT"},
		Timeframe:  "4h",
		DataPoints: 120,
	}, &staticFetcher{series: series}, detector, tracker, nil, nil, nil, zerolog.Nop())

	return NewServer("127.0.0.1", 0, mon, detector, store, zerolog.Nop()), mon
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("health returned %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body not JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, mon := newTestServer(t)
	mon.RunCycle(context.Background())

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status returned %d", w.Code)
	}

	var st monitor.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("status body not JSON: %v", err)
	}
	if st.CycleCount != 1 || st.Strategy != "api_test" {
		t.Errorf("status payload wrong: %+v", st)
	}
	if _, ok := st.Results["BTC/USDT"]; !ok {
		t.Error("status should include the symbol's result")
	}
}

func TestStrategyEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/strategy", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("strategy returned %d", w.Code)
	}
	var body struct {
		Name       string              `json:"name"`
		Parameters ichimoku.Parameters `json:"parameters"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("strategy body not JSON: %v", err)
	}
	if body.Name != "api_test" || body.Parameters.TenkanPeriod != 9 {
		t.Errorf("strategy payload wrong: %+v", body)
	}
}

func TestStateEndpoint(t *testing.T) {
	srv, mon := newTestServer(t)
	mon.RunCycle(context.Background())

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/state", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("state returned %d", w.Code)
	}
	var records map[string]state.Record
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("state body not JSON: %v", err)
	}
	if records["BTC/USDT"].Signal != "LONG" {
		t.Errorf("state payload wrong: %+v", records)
	}
}

func TestMetricsEndpointRegistered(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Errorf("metrics returned %d", w.Code)
	}
}
