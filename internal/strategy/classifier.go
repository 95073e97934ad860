package strategy

import "ichimoku-monitor/internal/ichimoku"

// Signal is the discrete classification of one analysis cycle
type Signal string

const (
	SignalLong      Signal = "LONG"
	SignalShort     Signal = "SHORT"
	SignalExitLong  Signal = "EXIT_LONG"
	SignalExitShort Signal = "EXIT_SHORT"
	SignalNone      Signal = "NONE"
)

// Classify maps the four rule outcomes to a single signal label with a
// confidence score. Priority order, first match wins: long entry, short
// entry, long exit, short exit. Confidence is the fraction of the firing
// group's listed predicates that are actually true at the bar, so an OR
// rule that fired on one of three predicates reports 1/3, not 1.0.
func Classify(out Outcomes, rules Rules, cs ichimoku.ConditionSet) (Signal, float64) {
	switch {
	case out.LongEntry:
		return SignalLong, groupConfidence(rules.LongEntry, cs)
	case out.ShortEntry:
		return SignalShort, groupConfidence(rules.ShortEntry, cs)
	case out.LongExit:
		return SignalExitLong, groupConfidence(rules.LongExit, cs)
	case out.ShortExit:
		return SignalExitShort, groupConfidence(rules.ShortExit, cs)
	}
	return SignalNone, 0
}

// groupConfidence returns met/total for one rule group's predicate list
func groupConfidence(preds []Predicate, cs ichimoku.ConditionSet) float64 {
	if len(preds) == 0 {
		return 0
	}
	met := 0
	for _, p := range preds {
		if p.holds(cs) {
			met++
		}
	}
	return float64(met) / float64(len(preds))
}
