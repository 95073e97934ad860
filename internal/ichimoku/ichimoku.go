package ichimoku

import (
	"fmt"
	"math"

	"ichimoku-monitor/internal/market"
)

// Parameters holds the Ichimoku window lengths and displacement offsets.
// All values are in bars and must be positive. Immutable once constructed.
type Parameters struct {
	TenkanPeriod  int `yaml:"tenkan_period" json:"tenkan_period" validate:"required,min=1"`
	KijunPeriod   int `yaml:"kijun_period" json:"kijun_period" validate:"required,min=1"`
	SenkouBPeriod int `yaml:"senkou_b_period" json:"senkou_b_period" validate:"required,min=1"`
	ChikouOffset  int `yaml:"chikou_offset" json:"chikou_offset" validate:"required,min=1"`
	SenkouOffset  int `yaml:"senkou_offset" json:"senkou_offset" validate:"required,min=1"`
}

// DefaultParameters returns the conventional 9/26/52/26/26 setup
func DefaultParameters() Parameters {
	return Parameters{
		TenkanPeriod:  9,
		KijunPeriod:   26,
		SenkouBPeriod: 52,
		ChikouOffset:  26,
		SenkouOffset:  26,
	}
}

// Validate checks that every window and offset is positive
func (p Parameters) Validate() error {
	if p.TenkanPeriod < 1 {
		return fmt.Errorf("tenkan_period must be positive, got %d", p.TenkanPeriod)
	}
	if p.KijunPeriod < 1 {
		return fmt.Errorf("kijun_period must be positive, got %d", p.KijunPeriod)
	}
	if p.SenkouBPeriod < 1 {
		return fmt.Errorf("senkou_b_period must be positive, got %d", p.SenkouBPeriod)
	}
	if p.ChikouOffset < 1 {
		return fmt.Errorf("chikou_offset must be positive, got %d", p.ChikouOffset)
	}
	if p.SenkouOffset < 1 {
		return fmt.Errorf("senkou_offset must be positive, got %d", p.SenkouOffset)
	}
	return nil
}

// Color is the cloud color at one bar
type Color string

const (
	ColorGreen Color = "green"
	ColorRed   Color = "red"
)

// Frame holds the derived Ichimoku series, one value per input bar.
// Values that cannot be computed because of the forward/backward shifts
// are NaN; every comparison against NaN evaluates false downstream.
type Frame struct {
	Series market.Series
	Params Parameters

	TenkanSen      []float64
	KijunSen       []float64
	SenkouSpanA    []float64
	SenkouSpanB    []float64
	ChikouSpan     []float64
	CloudTop       []float64
	CloudBottom    []float64
	CloudThickness []float64
	CloudColor     []Color
}

// Len returns the number of bars in the frame
func (f *Frame) Len() int {
	return len(f.Series)
}

// Compute calculates all Ichimoku components for the series. It is a pure
// function of its inputs: same series and parameters always produce the
// same frame. Rolling windows are clipped to available history with a
// minimum of one bar, so short series degrade gracefully instead of
// failing.
func Compute(series market.Series, params Parameters) (*Frame, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("ichimoku: invalid parameters: %w", err)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("ichimoku: invalid series: %w", err)
	}

	n := len(series)
	f := &Frame{
		Series:         series,
		Params:         params,
		TenkanSen:      make([]float64, n),
		KijunSen:       make([]float64, n),
		SenkouSpanA:    make([]float64, n),
		SenkouSpanB:    make([]float64, n),
		ChikouSpan:     make([]float64, n),
		CloudTop:       make([]float64, n),
		CloudBottom:    make([]float64, n),
		CloudThickness: make([]float64, n),
		CloudColor:     make([]Color, n),
	}

	for i := 0; i < n; i++ {
		f.TenkanSen[i] = rollingMidpoint(series, i, params.TenkanPeriod)
		f.KijunSen[i] = rollingMidpoint(series, i, params.KijunPeriod)
	}

	for i := 0; i < n; i++ {
		// Senkou spans are projected forward: the value plotted at bar i
		// was computed senkou_offset bars earlier.
		if src := i - params.SenkouOffset; src >= 0 {
			f.SenkouSpanA[i] = (f.TenkanSen[src] + f.KijunSen[src]) / 2
			f.SenkouSpanB[i] = rollingMidpoint(series, src, params.SenkouBPeriod)
		} else {
			f.SenkouSpanA[i] = math.NaN()
			f.SenkouSpanB[i] = math.NaN()
		}

		if src := i - params.ChikouOffset; src >= 0 {
			f.ChikouSpan[i] = series[src].Close
		} else {
			f.ChikouSpan[i] = math.NaN()
		}
	}

	for i := 0; i < n; i++ {
		a, b := f.SenkouSpanA[i], f.SenkouSpanB[i]
		f.CloudTop[i] = math.Max(a, b)
		f.CloudBottom[i] = math.Min(a, b)
		f.CloudThickness[i] = math.Abs(a - b)
		// NaN >= NaN is false, so bars without both spans report red.
		if a >= b {
			f.CloudColor[i] = ColorGreen
		} else {
			f.CloudColor[i] = ColorRed
		}
	}

	return f, nil
}

// rollingMidpoint returns (max(high) + min(low)) / 2 over the window of
// `period` bars ending at index i, clipped to available history.
func rollingMidpoint(s market.Series, i, period int) float64 {
	start := i - period + 1
	if start < 0 {
		start = 0
	}

	highest := s[start].High
	lowest := s[start].Low
	for j := start + 1; j <= i; j++ {
		if s[j].High > highest {
			highest = s[j].High
		}
		if s[j].Low < lowest {
			lowest = s[j].Low
		}
	}

	return (highest + lowest) / 2
}
