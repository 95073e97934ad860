package market

import (
	"fmt"
	"math"
	"time"
)

// Kline represents a candlestick
type Kline struct {
	OpenTime  int64   `json:"openTime"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"closeTime"`
}

// Time returns the bar's open time as UTC wall-clock time
func (k Kline) Time() time.Time {
	return time.UnixMilli(k.OpenTime).UTC()
}

// Series is an ordered run of klines. The final bar is the currently
// forming period; everything before it is closed.
type Series []Kline

// Validate checks the series invariants: non-empty, finite OHLC fields,
// strictly increasing open times.
func (s Series) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("series is empty")
	}
	for i, k := range s {
		if !isFinite(k.Open) || !isFinite(k.High) || !isFinite(k.Low) || !isFinite(k.Close) {
			return fmt.Errorf("bar %d: non-finite OHLC value", i)
		}
		if i > 0 && k.OpenTime <= s[i-1].OpenTime {
			return fmt.Errorf("bar %d: open time %d not after previous %d", i, k.OpenTime, s[i-1].OpenTime)
		}
	}
	return nil
}

// Closes returns the close prices of the series in order
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, k := range s {
		closes[i] = k.Close
	}
	return closes
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
