package ichimoku

import (
	"math"
	"testing"

	"ichimoku-monitor/internal/market"
)

// makeSeries builds n bars of 4h candles from a close-price function.
// High and low bracket the close by a fixed margin.
func makeSeries(n int, closeAt func(i int) float64) market.Series {
	series := make(market.Series, n)
	for i := 0; i < n; i++ {
		c := closeAt(i)
		series[i] = market.Kline{
			OpenTime:  int64(i) * 4 * 3600 * 1000,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
			CloseTime: int64(i+1)*4*3600*1000 - 1,
		}
	}
	return series
}

func risingSeries(n int) market.Series {
	return makeSeries(n, func(i int) float64 { return 100 + float64(i) })
}

func TestComputeRejectsInvalidParameters(t *testing.T) {
	series := risingSeries(10)

	bad := DefaultParameters()
	bad.TenkanPeriod = 0

	if _, err := Compute(series, bad); err == nil {
		t.Error("Compute should reject zero tenkan_period")
	}
}

func TestComputeRejectsEmptySeries(t *testing.T) {
	if _, err := Compute(nil, DefaultParameters()); err == nil {
		t.Error("Compute should reject an empty series")
	}
}

func TestComputeRejectsUnorderedSeries(t *testing.T) {
	series := risingSeries(10)
	series[5].OpenTime = series[4].OpenTime

	if _, err := Compute(series, DefaultParameters()); err == nil {
		t.Error("Compute should reject non-increasing open times")
	}
}

// TestRollingMidpointBounds verifies tenkan and kijun always sit inside the
// high/low range of their window.
func TestRollingMidpointBounds(t *testing.T) {
	series := makeSeries(100, func(i int) float64 {
		return 100 + 10*math.Sin(float64(i)/5)
	})

	f, err := Compute(series, DefaultParameters())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	for i := 0; i < f.Len(); i++ {
		lo, hi := windowRange(series, i, f.Params.TenkanPeriod)
		if f.TenkanSen[i] < lo || f.TenkanSen[i] > hi {
			t.Errorf("bar %d: tenkan %.4f outside window range [%.4f, %.4f]", i, f.TenkanSen[i], lo, hi)
		}
		lo, hi = windowRange(series, i, f.Params.KijunPeriod)
		if f.KijunSen[i] < lo || f.KijunSen[i] > hi {
			t.Errorf("bar %d: kijun %.4f outside window range [%.4f, %.4f]", i, f.KijunSen[i], lo, hi)
		}
	}
}

func windowRange(s market.Series, i, period int) (float64, float64) {
	start := i - period + 1
	if start < 0 {
		start = 0
	}
	lo, hi := s[start].Low, s[start].High
	for j := start + 1; j <= i; j++ {
		if s[j].Low < lo {
			lo = s[j].Low
		}
		if s[j].High > hi {
			hi = s[j].High
		}
	}
	return lo, hi
}

// TestShortSeriesClipsWindows verifies windows shrink to available history
// instead of producing NaN at the start of the series.
func TestShortSeriesClipsWindows(t *testing.T) {
	series := risingSeries(5)

	f, err := Compute(series, DefaultParameters())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	// Bar 0: midpoint of a single bar is (high+low)/2 = close.
	if f.TenkanSen[0] != series[0].Close {
		t.Errorf("tenkan at bar 0 should equal the single-bar midpoint, got %.4f", f.TenkanSen[0])
	}
	for i := 0; i < 5; i++ {
		if math.IsNaN(f.TenkanSen[i]) || math.IsNaN(f.KijunSen[i]) {
			t.Errorf("bar %d: tenkan/kijun should never be NaN", i)
		}
	}
}

// TestSenkouForwardShift verifies the spans plotted at bar i come from the
// values computed senkou_offset bars earlier.
func TestSenkouForwardShift(t *testing.T) {
	params := DefaultParameters()
	series := risingSeries(80)

	f, err := Compute(series, params)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	for i := 0; i < params.SenkouOffset; i++ {
		if !math.IsNaN(f.SenkouSpanA[i]) || !math.IsNaN(f.SenkouSpanB[i]) {
			t.Errorf("bar %d: senkou spans should be NaN before the offset", i)
		}
	}

	for i := params.SenkouOffset; i < f.Len(); i++ {
		src := i - params.SenkouOffset
		wantA := (f.TenkanSen[src] + f.KijunSen[src]) / 2
		if f.SenkouSpanA[i] != wantA {
			t.Errorf("bar %d: senkou A %.4f, want %.4f from bar %d", i, f.SenkouSpanA[i], wantA, src)
		}
	}
}

func TestChikouBackwardShift(t *testing.T) {
	params := DefaultParameters()
	series := risingSeries(60)

	f, err := Compute(series, params)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	for i := 0; i < params.ChikouOffset; i++ {
		if !math.IsNaN(f.ChikouSpan[i]) {
			t.Errorf("bar %d: chikou should be NaN before the offset", i)
		}
	}
	for i := params.ChikouOffset; i < f.Len(); i++ {
		want := series[i-params.ChikouOffset].Close
		if f.ChikouSpan[i] != want {
			t.Errorf("bar %d: chikou %.4f, want %.4f", i, f.ChikouSpan[i], want)
		}
	}
}

// TestCloudColorMonotonicRise verifies a steadily rising market yields a
// green cloud once both spans exist: span A reacts faster than span B.
func TestCloudColorMonotonicRise(t *testing.T) {
	params := DefaultParameters()
	series := risingSeries(100)

	f, err := Compute(series, params)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	for i := 0; i < params.SenkouOffset; i++ {
		if f.CloudColor[i] != ColorRed {
			t.Errorf("bar %d: undefined cloud should report red", i)
		}
	}
	// Give span B's longer window time to trail behind span A.
	for i := params.SenkouOffset + params.SenkouBPeriod; i < f.Len(); i++ {
		if f.CloudColor[i] != ColorGreen {
			t.Errorf("bar %d: rising market should have a green cloud, got %s", i, f.CloudColor[i])
		}
		if f.CloudTop[i] < f.CloudBottom[i] {
			t.Errorf("bar %d: cloud top below cloud bottom", i)
		}
	}
}

func TestCloudThicknessNaNBeforeOffset(t *testing.T) {
	series := risingSeries(40)

	f, err := Compute(series, DefaultParameters())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if !math.IsNaN(f.CloudThickness[0]) || !math.IsNaN(f.CloudTop[0]) {
		t.Error("cloud geometry should be NaN where spans are undefined")
	}
}

// TestComputeDeterministic verifies the same inputs produce identical
// frames.
func TestComputeDeterministic(t *testing.T) {
	series := makeSeries(90, func(i int) float64 {
		return 200 + 15*math.Sin(float64(i)/7) + float64(i%3)
	})
	params := DefaultParameters()

	f1, err := Compute(series, params)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	f2, err := Compute(series, params)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	for i := 0; i < f1.Len(); i++ {
		if f1.TenkanSen[i] != f2.TenkanSen[i] || f1.CloudColor[i] != f2.CloudColor[i] {
			t.Fatalf("bar %d: repeated computation diverged", i)
		}
		a1, a2 := f1.SenkouSpanA[i], f2.SenkouSpanA[i]
		if a1 != a2 && !(math.IsNaN(a1) && math.IsNaN(a2)) {
			t.Fatalf("bar %d: senkou A diverged", i)
		}
	}
}
