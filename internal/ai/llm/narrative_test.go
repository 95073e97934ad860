package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ichimoku-monitor/internal/strategy"
)

func sampleResult() *strategy.Result {
	tenkan := 50100.0
	cloudTop := 49000.0
	return &strategy.Result{
		Signal:     strategy.SignalLong,
		Symbol:     "BTC/USDT",
		Timestamp:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Confidence: 1,
		Snapshot: strategy.Snapshot{
			Close:      50000,
			TenkanSen:  &tenkan,
			CloudTop:   &cloudTop,
			CloudColor: "green",
		},
	}
}

func TestBuildNarrativePrompt(t *testing.T) {
	prompt := buildNarrativePrompt(sampleResult(), strategy.SignalNone)

	assert.Contains(t, prompt, "Symbol: BTC/USDT")
	assert.Contains(t, prompt, "Signal: LONG (previous state: NONE)")
	assert.Contains(t, prompt, "Confidence: 100%")
	assert.Contains(t, prompt, "Tenkan-sen: 50100.0000")
	// Undefined components render as n/a instead of NaN.
	assert.Contains(t, prompt, "Kijun-sen: n/a")
	assert.Contains(t, prompt, "Cloud: green")
	assert.NotContains(t, prompt, "NaN")
}

func TestFmtLevel(t *testing.T) {
	v := 123.4567
	assert.Equal(t, "123.4567", fmtLevel(&v))
	assert.Equal(t, "n/a", fmtLevel(nil))
}

func TestCompleteRejectsUnknownProvider(t *testing.T) {
	client := NewClient(&ClientConfig{Provider: "mystery", APIKey: "k"})

	_, err := client.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, NewClient(DefaultClientConfig()).IsConfigured())
	assert.True(t, NewClient(&ClientConfig{Provider: ProviderGemini, APIKey: "k"}).IsConfigured())
}

func TestGeneratorDisabledWithoutClient(t *testing.T) {
	var g *NarrativeGenerator
	assert.False(t, g.Enabled(), "nil generator must report disabled")
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.NotZero(t, cfg.MaxTokens)
	assert.Greater(t, cfg.Timeout, time.Duration(0))
	assert.False(t, strings.Contains(cfg.Model, " "))
}
