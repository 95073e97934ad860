package state

import (
	"github.com/rs/zerolog"

	"ichimoku-monitor/internal/strategy"
)

// Decision is the tracker's verdict for one detection result
type Decision struct {
	// Notify is true when the signal label changed and a notification
	// should go out.
	Notify bool
	// Previous is the label seen before this result, or "NONE" when the
	// symbol had no prior record.
	Previous strategy.Signal
}

// Tracker applies change-of-state logic on top of the store: a symbol only
// produces a notification when its signal label differs from the last one
// recorded. Repeats are debounced silently, and a revert to NONE is
// suppressed without touching the persisted record, so the next real
// signal is still compared against the last actionable one.
type Tracker struct {
	store  *Store
	logger zerolog.Logger
}

func NewTracker(store *Store, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger.With().Str("component", "SignalTracker").Logger(),
	}
}

// Observe records a detection result and decides whether it warrants a
// notification. Only non-NONE labels are ever persisted.
func (t *Tracker) Observe(res *strategy.Result) Decision {
	prev := strategy.SignalNone
	rec, exists := t.store.Get(res.Symbol)
	if exists {
		prev = strategy.Signal(rec.Signal)
	}

	d := Decision{Previous: prev}

	if res.Signal == prev {
		t.logger.Debug().
			Str("symbol", res.Symbol).
			Str("signal", string(res.Signal)).
			Msg("Signal unchanged, skipping notification")
		return d
	}

	if res.Signal == strategy.SignalNone {
		// Conditions no longer firing is not actionable. The stored
		// record stays as-is so a later re-entry still counts as a
		// change.
		t.logger.Debug().
			Str("symbol", res.Symbol).
			Str("previous", string(prev)).
			Msg("Signal reverted to none, keeping last recorded state")
		return d
	}

	d.Notify = true

	if err := t.store.Put(res.Symbol, Record{
		Signal:     string(res.Signal),
		Confidence: res.Confidence,
		Timestamp:  res.Timestamp,
		Details: map[string]interface{}{
			"close":       res.Snapshot.Close,
			"cloud_color": res.Snapshot.CloudColor,
		},
	}); err != nil {
		// The in-memory transition stands; only the mirror on disk is
		// stale until the next successful write.
		t.logger.Error().Err(err).
			Str("symbol", res.Symbol).
			Msg("Failed to persist signal state")
	}

	t.logger.Info().
		Str("symbol", res.Symbol).
		Str("previous", string(prev)).
		Str("signal", string(res.Signal)).
		Float64("confidence", res.Confidence).
		Msg("Signal state changed")

	return d
}
