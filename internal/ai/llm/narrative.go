package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ichimoku-monitor/internal/strategy"
)

// NarrativeMaxLength caps narrative text appended to notifications
const NarrativeMaxLength = 800

const narrativeSystemPrompt = `You are a market analyst summarizing an Ichimoku Cloud signal for a trader's notification feed.
Write 2-4 short sentences in plain language. Describe what the indicator state implies and what to watch next.
Do not give financial advice, price targets, or position sizing. Do not use markdown.`

// NarrativeGenerator produces a short LLM commentary for a signal change.
// Generation failures are reported to the caller, who sends the
// notification without a narrative.
type NarrativeGenerator struct {
	client *Client
	logger zerolog.Logger
}

func NewNarrativeGenerator(client *Client, logger zerolog.Logger) *NarrativeGenerator {
	return &NarrativeGenerator{
		client: client,
		logger: logger.With().Str("component", "NarrativeGenerator").Logger(),
	}
}

// Enabled reports whether the generator can produce narratives
func (g *NarrativeGenerator) Enabled() bool {
	return g != nil && g.client != nil && g.client.IsConfigured()
}

// Generate builds a narrative for a detection result. The returned text is
// trimmed to NarrativeMaxLength runes.
func (g *NarrativeGenerator) Generate(ctx context.Context, res *strategy.Result, previous strategy.Signal) (string, error) {
	prompt := buildNarrativePrompt(res, previous)

	text, err := g.client.Complete(ctx, narrativeSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("narrative generation: %w", err)
	}

	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > NarrativeMaxLength {
		text = string(runes[:NarrativeMaxLength])
	}

	g.logger.Debug().
		Str("symbol", res.Symbol).
		Int("length", len(text)).
		Msg("Generated signal narrative")

	return text, nil
}

func buildNarrativePrompt(res *strategy.Result, previous strategy.Signal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Symbol: %s\n", res.Symbol)
	fmt.Fprintf(&b, "Signal: %s (previous state: %s)\n", res.Signal, previous)
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", res.Confidence*100)
	fmt.Fprintf(&b, "Bar time: %s\n", res.Timestamp.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "Close: %.4f\n", res.Snapshot.Close)
	fmt.Fprintf(&b, "Tenkan-sen: %s\n", fmtLevel(res.Snapshot.TenkanSen))
	fmt.Fprintf(&b, "Kijun-sen: %s\n", fmtLevel(res.Snapshot.KijunSen))
	fmt.Fprintf(&b, "Senkou Span A: %s\n", fmtLevel(res.Snapshot.SenkouSpanA))
	fmt.Fprintf(&b, "Senkou Span B: %s\n", fmtLevel(res.Snapshot.SenkouSpanB))
	fmt.Fprintf(&b, "Cloud: %s, top %s, bottom %s\n",
		res.Snapshot.CloudColor, fmtLevel(res.Snapshot.CloudTop), fmtLevel(res.Snapshot.CloudBottom))

	return b.String()
}

func fmtLevel(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}
