package strategy

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"ichimoku-monitor/internal/ichimoku"
)

// Logic selects how a rule group combines its predicates
type Logic string

const (
	LogicAND Logic = "AND"
	LogicOR  Logic = "OR"
)

// ParseLogic resolves a configuration string to a Logic mode
func ParseLogic(s string) (Logic, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return LogicAND, nil
	case "OR":
		return LogicOR, nil
	}
	return "", fmt.Errorf("unknown rule logic %q (want AND or OR)", s)
}

// UnmarshalYAML parses a logic mode, defaulting to AND when empty
func (l *Logic) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLogic(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Rules defines the four entry/exit groups of one strategy. Loaded once
// from configuration and immutable during a run.
type Rules struct {
	LongEntry  []Predicate `yaml:"long_entry" json:"long_entry"`
	ShortEntry []Predicate `yaml:"short_entry" json:"short_entry"`
	LongExit   []Predicate `yaml:"long_exit" json:"long_exit"`
	ShortExit  []Predicate `yaml:"short_exit" json:"short_exit"`

	LongEntryLogic  Logic `yaml:"long_entry_logic" json:"long_entry_logic"`
	ShortEntryLogic Logic `yaml:"short_entry_logic" json:"short_entry_logic"`
	LongExitLogic   Logic `yaml:"long_exit_logic" json:"long_exit_logic"`
	ShortExitLogic  Logic `yaml:"short_exit_logic" json:"short_exit_logic"`
}

// Normalize fills in missing logic modes with AND
func (r *Rules) Normalize() {
	if r.LongEntryLogic == "" {
		r.LongEntryLogic = LogicAND
	}
	if r.ShortEntryLogic == "" {
		r.ShortEntryLogic = LogicAND
	}
	if r.LongExitLogic == "" {
		r.LongExitLogic = LogicAND
	}
	if r.ShortExitLogic == "" {
		r.ShortExitLogic = LogicAND
	}
}

// Outcomes holds the four independent rule group results for one bar
type Outcomes struct {
	LongEntry  bool `json:"long_entry"`
	ShortEntry bool `json:"short_entry"`
	LongExit   bool `json:"long_exit"`
	ShortExit  bool `json:"short_exit"`
}

// Evaluate applies all four rule groups to the conditions of one bar
func (r Rules) Evaluate(cs ichimoku.ConditionSet) Outcomes {
	return Outcomes{
		LongEntry:  evalGroup(r.LongEntry, r.LongEntryLogic, cs),
		ShortEntry: evalGroup(r.ShortEntry, r.ShortEntryLogic, cs),
		LongExit:   evalGroup(r.LongExit, r.LongExitLogic, cs),
		ShortExit:  evalGroup(r.ShortExit, r.ShortExitLogic, cs),
	}
}

// evalGroup combines a predicate list under AND/OR logic. An empty group
// never fires.
func evalGroup(preds []Predicate, logic Logic, cs ichimoku.ConditionSet) bool {
	if len(preds) == 0 {
		return false
	}
	if logic == LogicOR {
		for _, p := range preds {
			if p.holds(cs) {
				return true
			}
		}
		return false
	}
	for _, p := range preds {
		if !p.holds(cs) {
			return false
		}
	}
	return true
}

// ClosedBarIndex returns the index of the latest fully closed bar for a
// series of n bars: the second-to-last bar when more than one exists,
// else the only bar. The condition evaluator has already masked the true
// last bar to all-false.
func ClosedBarIndex(n int) int {
	if n > 1 {
		return n - 2
	}
	return 0
}
