package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"ichimoku-monitor/internal/ichimoku"
	"ichimoku-monitor/internal/market"
)

// Snapshot captures the indicator values at the evaluated bar for
// reporting. Pointer fields are nil where the value is undefined.
type Snapshot struct {
	Close       float64  `json:"close"`
	TenkanSen   *float64 `json:"tenkan_sen"`
	KijunSen    *float64 `json:"kijun_sen"`
	SenkouSpanA *float64 `json:"senkou_span_a"`
	SenkouSpanB *float64 `json:"senkou_span_b"`
	ChikouSpan  *float64 `json:"chikou_span"`
	CloudTop    *float64 `json:"cloud_top"`
	CloudBottom *float64 `json:"cloud_bottom"`
	CloudColor  string   `json:"cloud_color"`
}

// Result is the outcome of one detection cycle for one symbol. Created
// fresh each cycle and never mutated afterwards.
type Result struct {
	Signal     Signal    `json:"signal_type"`
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"` // open time of the evaluated closed bar
	Confidence float64   `json:"confidence"`
	Outcomes   Outcomes  `json:"outcomes"`
	Snapshot   Snapshot  `json:"ichimoku_values"`
}

// Detector runs the full indicator-to-classification pipeline for one
// named strategy. The strategy is chosen explicitly at construction;
// there is no process-wide default.
type Detector struct {
	name   string
	params ichimoku.Parameters
	rules  Rules
	logger zerolog.Logger
}

// NewDetector creates a detector for one strategy. The rules must already
// be normalized and validated by the configuration loader.
func NewDetector(name string, params ichimoku.Parameters, rules Rules, logger zerolog.Logger) (*Detector, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("strategy %s: %w", name, err)
	}
	rules.Normalize()
	return &Detector{
		name:   name,
		params: params,
		rules:  rules,
		logger: logger.With().Str("component", "Detector").Str("strategy", name).Logger(),
	}, nil
}

// Name returns the strategy name the detector was constructed with
func (d *Detector) Name() string {
	return d.name
}

// Parameters returns the detector's Ichimoku parameters
func (d *Detector) Parameters() ichimoku.Parameters {
	return d.params
}

// Rules returns the detector's rule groups
func (d *Detector) Rules() Rules {
	return d.rules
}

// Detect computes indicators, evaluates the rule groups on the latest
// closed bar and classifies the result. Deterministic for a given series.
func (d *Detector) Detect(series market.Series, symbol string) (*Result, error) {
	frame, err := ichimoku.Compute(series, d.params)
	if err != nil {
		return nil, fmt.Errorf("detecting signal for %s: %w", symbol, err)
	}

	sets := frame.Conditions()
	idx := ClosedBarIndex(len(sets))
	cs := sets[idx]

	outcomes := d.rules.Evaluate(cs)
	signal, confidence := Classify(outcomes, d.rules, cs)

	result := &Result{
		Signal:     signal,
		Symbol:     symbol,
		Timestamp:  series[idx].Time(),
		Confidence: confidence,
		Outcomes:   outcomes,
		Snapshot:   snapshotAt(frame, idx),
	}

	d.logger.Debug().
		Str("symbol", symbol).
		Str("signal", string(signal)).
		Float64("confidence", confidence).
		Time("bar", result.Timestamp).
		Msg("Signal detected")

	return result, nil
}

// snapshotAt extracts the indicator values at one bar, mapping NaN to nil
func snapshotAt(f *ichimoku.Frame, i int) Snapshot {
	return Snapshot{
		Close:       f.Series[i].Close,
		TenkanSen:   nullable(f.TenkanSen[i]),
		KijunSen:    nullable(f.KijunSen[i]),
		SenkouSpanA: nullable(f.SenkouSpanA[i]),
		SenkouSpanB: nullable(f.SenkouSpanB[i]),
		ChikouSpan:  nullable(f.ChikouSpan[i]),
		CloudTop:    nullable(f.CloudTop[i]),
		CloudBottom: nullable(f.CloudBottom[i]),
		CloudColor:  string(f.CloudColor[i]),
	}
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
