package market

import (
	"errors"
	"fmt"
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := []struct{ in, want string }{
		{"BTC/USDT", "BTCUSDT"},
		{"btc/usdt", "BTCUSDT"},
		{"ETHUSDT", "ETHUSDT"},
		{"sol/usdt", "SOLUSDT"},
	}
	for _, c := range cases {
		if got := NormalizeSymbol(c.in); got != c.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestClassifyError verifies the error taxonomy: rate limits retry,
// rejections do not, unknown failures are assumed transient.
func TestClassifyError(t *testing.T) {
	rateLimited := &common.APIError{Code: -1003, Message: "Too many requests"}
	if !IsTransient(classifyError(rateLimited)) {
		t.Error("rate limit should classify as transient")
	}

	banned := &common.APIError{Code: -1015, Message: "Too many orders"}
	if !IsTransient(classifyError(banned)) {
		t.Error("order flood should classify as transient")
	}

	badSymbol := &common.APIError{Code: -1121, Message: "Invalid symbol"}
	classified := classifyError(badSymbol)
	if IsTransient(classified) {
		t.Error("invalid symbol should never retry")
	}
	var reqErr *RequestError
	if !errors.As(classified, &reqErr) {
		t.Error("rejections should wrap as RequestError")
	}

	network := fmt.Errorf("dial tcp: connection refused")
	if !IsTransient(classifyError(network)) {
		t.Error("network errors should classify as transient")
	}
}

func TestClassifyErrorPreservesCause(t *testing.T) {
	cause := &common.APIError{Code: -1121, Message: "Invalid symbol"}
	classified := classifyError(cause)

	var apiErr *common.APIError
	if !errors.As(classified, &apiErr) || apiErr.Code != -1121 {
		t.Error("classified error should unwrap to the original API error")
	}
}

func TestConvertKlines(t *testing.T) {
	raw := []*binance.Kline{
		{
			OpenTime:  1700000000000,
			Open:      "100.5",
			High:      "110.25",
			Low:       "99.75",
			Close:     "105.0",
			Volume:    "1234.5",
			CloseTime: 1700014399999,
		},
	}

	series, err := convertKlines(raw)
	if err != nil {
		t.Fatalf("convertKlines failed: %v", err)
	}

	bar := series[0]
	if bar.Open != 100.5 || bar.High != 110.25 || bar.Low != 99.75 || bar.Close != 105.0 {
		t.Errorf("OHLC parsed wrong: %+v", bar)
	}
	if bar.Volume != 1234.5 {
		t.Errorf("volume parsed wrong: %v", bar.Volume)
	}
	if bar.OpenTime != 1700000000000 || bar.CloseTime != 1700014399999 {
		t.Errorf("timestamps not carried through: %+v", bar)
	}
}

func TestConvertKlinesRejectsGarbage(t *testing.T) {
	raw := []*binance.Kline{
		{Open: "not-a-number", High: "1", Low: "1", Close: "1", Volume: "1"},
	}
	if _, err := convertKlines(raw); err == nil {
		t.Error("unparseable price should be an error")
	}
}

func TestSeriesValidate(t *testing.T) {
	good := Series{
		{OpenTime: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{OpenTime: 2000, Open: 1.5, High: 2.5, Low: 1, Close: 2},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("valid series rejected: %v", err)
	}

	if err := (Series{}).Validate(); err == nil {
		t.Error("empty series should be invalid")
	}

	unordered := Series{
		{OpenTime: 2000, Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{OpenTime: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5},
	}
	if err := unordered.Validate(); err == nil {
		t.Error("unordered series should be invalid")
	}
}

func TestKlineTime(t *testing.T) {
	k := Kline{OpenTime: 1700000000000}
	got := k.Time()
	if got.UnixMilli() != 1700000000000 {
		t.Errorf("Time round trip failed: %v", got)
	}
	if got.Location().String() != "UTC" {
		t.Errorf("Time should be UTC, got %v", got.Location())
	}
}
