package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ichimoku-monitor/internal/ai/llm"
	"ichimoku-monitor/internal/market"
	"ichimoku-monitor/internal/metrics"
	"ichimoku-monitor/internal/notification"
	"ichimoku-monitor/internal/state"
	"ichimoku-monitor/internal/strategy"
)

// KlineFetcher provides closed-candle history for a symbol
type KlineFetcher interface {
	Fetch(ctx context.Context, symbol, timeframe string, limit int) (market.Series, error)
}

// Config holds the per-cycle settings of the monitor
type Config struct {
	Symbols      []string
	Timeframe    string
	DataPoints   int
	FetchTimeout time.Duration
}

// Monitor runs the detection pipeline for every configured symbol:
// fetch, detect, compare against tracked state, notify on change.
type Monitor struct {
	cfg       Config
	fetcher   KlineFetcher
	detector  *strategy.Detector
	tracker   *state.Tracker
	notifier  *notification.Manager
	narrative *llm.NarrativeGenerator
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	mu          sync.RWMutex
	lastResults map[string]*strategy.Result
	lastCycle   time.Time
	cycleCount  uint64
}

func New(cfg Config, fetcher KlineFetcher, detector *strategy.Detector, tracker *state.Tracker,
	notifier *notification.Manager, narrative *llm.NarrativeGenerator, m *metrics.Metrics,
	logger zerolog.Logger) *Monitor {
	return &Monitor{
		cfg:         cfg,
		fetcher:     fetcher,
		detector:    detector,
		tracker:     tracker,
		notifier:    notifier,
		narrative:   narrative,
		metrics:     m,
		logger:      logger.With().Str("component", "Monitor").Logger(),
		lastResults: make(map[string]*strategy.Result),
	}
}

// RunCycle evaluates every symbol once. Symbols are processed
// sequentially; a failing symbol is logged and skipped, never aborting
// the cycle.
func (m *Monitor) RunCycle(ctx context.Context) {
	cycleID := uuid.NewString()
	start := time.Now()
	log := m.logger.With().Str("cycle_id", cycleID).Logger()

	log.Info().
		Int("symbols", len(m.cfg.Symbols)).
		Str("timeframe", m.cfg.Timeframe).
		Msg("Starting monitoring cycle")

	notified := 0
	failed := 0
	for _, symbol := range m.cfg.Symbols {
		if ctx.Err() != nil {
			log.Warn().Msg("Cycle interrupted by shutdown")
			return
		}
		sent, err := m.runSymbol(ctx, log, symbol)
		if err != nil {
			failed++
			if m.metrics != nil {
				m.metrics.SymbolErrorsTotal.Inc()
			}
			log.Error().Err(err).Str("symbol", symbol).Msg("Symbol evaluation failed, skipping")
			continue
		}
		if sent {
			notified++
		}
	}

	elapsed := time.Since(start)
	m.mu.Lock()
	m.lastCycle = start.UTC()
	m.cycleCount++
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.CyclesTotal.Inc()
		m.metrics.CycleDuration.Observe(elapsed.Seconds())
		m.metrics.LastCycleTime.SetToCurrentTime()
	}

	log.Info().
		Dur("elapsed", elapsed).
		Int("notified", notified).
		Int("failed", failed).
		Msg("Monitoring cycle complete")
}

func (m *Monitor) runSymbol(ctx context.Context, log zerolog.Logger, symbol string) (bool, error) {
	fetchCtx := ctx
	if m.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, m.cfg.FetchTimeout)
		defer cancel()
	}

	series, err := m.fetcher.Fetch(fetchCtx, symbol, m.cfg.Timeframe, m.cfg.DataPoints)
	if err != nil {
		if m.metrics != nil {
			m.metrics.FetchErrorsTotal.WithLabelValues(fetchErrorCategory(err)).Inc()
		}
		return false, err
	}

	res, err := m.detector.Detect(series, symbol)
	if err != nil {
		return false, err
	}

	if m.metrics != nil {
		m.metrics.SignalsTotal.WithLabelValues(symbol, string(res.Signal)).Inc()
	}

	m.mu.Lock()
	m.lastResults[symbol] = res
	m.mu.Unlock()

	decision := m.tracker.Observe(res)
	if !decision.Notify {
		return false, nil
	}

	narrative := m.buildNarrative(ctx, log, res, decision.Previous)

	if m.notifier != nil {
		if err := m.notifier.SendSignal(res, decision.Previous, narrative); err != nil {
			// Delivery failures are already logged per sink; the state
			// transition is recorded regardless.
			log.Warn().Err(err).Str("symbol", symbol).Msg("Some notification sinks failed")
		}
	}
	return true, nil
}

func (m *Monitor) buildNarrative(ctx context.Context, log zerolog.Logger, res *strategy.Result, prev strategy.Signal) string {
	if !m.narrative.Enabled() {
		return ""
	}
	text, err := m.narrative.Generate(ctx, res, prev)
	if err != nil {
		if m.metrics != nil {
			m.metrics.NarrativeFailures.Inc()
		}
		log.Warn().Err(err).Str("symbol", res.Symbol).Msg("Narrative generation failed, sending without it")
		return ""
	}
	if m.metrics != nil {
		m.metrics.NarrativesTotal.Inc()
	}
	return text
}

// Status is a point-in-time view for the HTTP API
type Status struct {
	Symbols    []string                    `json:"symbols"`
	Timeframe  string                      `json:"timeframe"`
	Strategy   string                      `json:"strategy"`
	CycleCount uint64                      `json:"cycle_count"`
	LastCycle  *time.Time                  `json:"last_cycle,omitempty"`
	Results    map[string]*strategy.Result `json:"results"`
}

// Status returns the latest per-symbol results
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]*strategy.Result, len(m.lastResults))
	for k, v := range m.lastResults {
		results[k] = v
	}

	st := Status{
		Symbols:    m.cfg.Symbols,
		Timeframe:  m.cfg.Timeframe,
		Strategy:   m.detector.Name(),
		CycleCount: m.cycleCount,
		Results:    results,
	}
	if !m.lastCycle.IsZero() {
		t := m.lastCycle
		st.LastCycle = &t
	}
	return st
}

func fetchErrorCategory(err error) string {
	switch {
	case errors.Is(err, market.ErrEmptyResult):
		return "empty"
	case market.IsTransient(err):
		return "transient"
	default:
		return "rejected"
	}
}
