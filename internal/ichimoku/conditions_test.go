package ichimoku

import (
	"testing"
)

// TestLastBarMasked verifies the forming bar never reports a true
// predicate, whatever its raw values look like.
func TestLastBarMasked(t *testing.T) {
	series := risingSeries(100)

	f, err := Compute(series, DefaultParameters())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	sets := f.Conditions()
	last := sets[len(sets)-1]
	if last != (ConditionSet{}) {
		t.Errorf("forming bar must be all-false, got %+v", last)
	}

	// The bar before it, in a long rising market, should be firing.
	prev := sets[len(sets)-2]
	if !prev.PriceAboveCloud || !prev.ChikouAbovePrice {
		t.Errorf("closed bar of a rising market should fire bullish predicates, got %+v", prev)
	}
}

// TestNaNRegionsAllFalse verifies bars whose shifted inputs are undefined
// report false for the affected predicates rather than panicking or
// leaking garbage.
func TestNaNRegionsAllFalse(t *testing.T) {
	params := DefaultParameters()
	series := risingSeries(100)

	f, err := Compute(series, params)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	sets := f.Conditions()
	for i := 0; i < params.SenkouOffset; i++ {
		cs := sets[i]
		if cs.PriceAboveCloud || cs.PriceBelowCloud || cs.SpanAAboveSpanB || cs.SpanABelowSpanB {
			t.Errorf("bar %d: cloud predicates should be false while spans are undefined, got %+v", i, cs)
		}
	}
	for i := 0; i < params.ChikouOffset; i++ {
		cs := sets[i]
		if cs.ChikouAbovePrice || cs.ChikouBelowPrice || cs.ChikouAboveCloud || cs.ChikouBelowCloud {
			t.Errorf("bar %d: chikou predicates should be false without history, got %+v", i, cs)
		}
	}
}

// TestTieIsNeitherAboveNorBelow verifies exact equality leaves both sides
// of a predicate pair false.
func TestTieIsNeitherAboveNorBelow(t *testing.T) {
	// A flat market makes tenkan and kijun identical everywhere.
	series := makeSeries(100, func(i int) float64 { return 500 })

	f, err := Compute(series, DefaultParameters())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	sets := f.Conditions()
	for i, cs := range sets {
		if cs.TenkanAboveKijun || cs.TenkanBelowKijun {
			t.Errorf("bar %d: flat market should tie tenkan/kijun, got %+v", i, cs)
		}
		if cs.SpanAAboveSpanB || cs.SpanABelowSpanB {
			t.Errorf("bar %d: flat market should tie the spans, got %+v", i, cs)
		}
	}
}

// TestChikouComparesAgainstHistory verifies the lagging-span predicates
// compare the current close against the bar chikou_offset in the past.
func TestChikouComparesAgainstHistory(t *testing.T) {
	params := DefaultParameters()

	// Falling market: today's close is below the close 26 bars ago.
	series := makeSeries(60, func(i int) float64 { return 1000 - float64(i) })

	f, err := Compute(series, params)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	sets := f.Conditions()
	for i := params.ChikouOffset; i < len(sets)-1; i++ {
		if !sets[i].ChikouBelowPrice {
			t.Errorf("bar %d: falling market should put chikou below historical price", i)
		}
		if sets[i].ChikouAbovePrice {
			t.Errorf("bar %d: chikou cannot be above price in a falling market", i)
		}
	}
}

func TestConditionsLengthMatchesFrame(t *testing.T) {
	series := risingSeries(70)

	f, err := Compute(series, DefaultParameters())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if got := len(f.Conditions()); got != f.Len() {
		t.Errorf("conditions length %d, want %d", got, f.Len())
	}
}
