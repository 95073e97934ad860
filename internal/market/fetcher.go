package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ErrEmptyResult indicates the exchange returned no candles for a symbol.
// Callers should skip the symbol for this cycle rather than treat it as a
// hard failure.
var ErrEmptyResult = errors.New("market: empty kline result")

// TransientError wraps failures worth retrying (network problems, rate
// limits, exchange 5xx responses).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "market: transient fetch error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// RequestError wraps rejections the exchange will never accept on retry,
// such as an unknown symbol or a bad interval.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "market: request rejected: " + e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable fetch failure
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// FetcherConfig holds market data fetcher configuration
type FetcherConfig struct {
	BaseURL        string
	MaxRetries     uint64        // retries on transient errors; 0 = fail fast
	InitialBackoff time.Duration // first retry delay, grows exponentially with jitter
}

// Fetcher pulls OHLCV candles from Binance spot REST
type Fetcher struct {
	client *binance.Client
	cfg    FetcherConfig
	logger zerolog.Logger
}

// NewFetcher creates a market data fetcher. No API credentials are needed
// for public kline endpoints.
func NewFetcher(cfg FetcherConfig, logger zerolog.Logger) *Fetcher {
	client := binance.NewClient("", "")
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 2 * time.Second
	}
	return &Fetcher{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "MarketFetcher").Logger(),
	}
}

// NormalizeSymbol converts a slash-form pair like "BTC/USDT" into the
// exchange form "BTCUSDT". Already-normalized symbols pass through.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// Fetch returns up to limit candles for symbol at the given timeframe.
// Transient failures are retried with exponential backoff and jitter up to
// the configured ceiling; rejections and empty results are returned
// immediately.
func (f *Fetcher) Fetch(ctx context.Context, symbol, timeframe string, limit int) (Series, error) {
	var series Series

	operation := func() error {
		raw, err := f.client.NewKlinesService().
			Symbol(NormalizeSymbol(symbol)).
			Interval(timeframe).
			Limit(limit).
			Do(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return backoff.Permanent(err)
			}
			classified := classifyError(err)
			if !IsTransient(classified) {
				return backoff.Permanent(classified)
			}
			return classified
		}
		if len(raw) == 0 {
			return backoff.Permanent(ErrEmptyResult)
		}
		series, err = convertKlines(raw)
		if err != nil {
			return backoff.Permanent(&RequestError{Err: err})
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = f.cfg.InitialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, f.cfg.MaxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		f.logger.Warn().
			Err(err).
			Str("symbol", symbol).
			Dur("retry_in", wait).
			Msg("Transient fetch error, retrying")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return series, nil
}

// classifyError maps an exchange error onto the fetch taxonomy. Rate limit
// and ban codes are transient; every other API rejection is permanent.
// Anything that is not an API error is assumed to be a network problem.
func classifyError(err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case -1003, -1015: // TOO_MANY_REQUESTS, TOO_MANY_ORDERS
			return &TransientError{Err: err}
		}
		return &RequestError{Err: err}
	}
	return &TransientError{Err: err}
}

func convertKlines(raw []*binance.Kline) (Series, error) {
	series := make(Series, len(raw))
	for i, k := range raw {
		bar, err := convertKline(k)
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
		series[i] = bar
	}
	return series, nil
}

func convertKline(k *binance.Kline) (Kline, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return Kline{}, fmt.Errorf("parsing open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return Kline{}, fmt.Errorf("parsing high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return Kline{}, fmt.Errorf("parsing low %q: %w", k.Low, err)
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return Kline{}, fmt.Errorf("parsing close %q: %w", k.Close, err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return Kline{}, fmt.Errorf("parsing volume %q: %w", k.Volume, err)
	}
	return Kline{
		OpenTime:  k.OpenTime,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
		CloseTime: k.CloseTime,
	}, nil
}
