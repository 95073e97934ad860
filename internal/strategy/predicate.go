package strategy

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"ichimoku-monitor/internal/ichimoku"
)

// Predicate identifies one of the ten boolean Ichimoku conditions a rule
// group may reference. The set is closed: configuration naming anything
// else is rejected at load time.
type Predicate int

const (
	PriceAboveCloud Predicate = iota
	PriceBelowCloud
	TenkanAboveKijun
	TenkanBelowKijun
	SpanAAboveSpanB
	SpanABelowSpanB
	ChikouAbovePrice
	ChikouBelowPrice
	ChikouAboveCloud
	ChikouBelowCloud
)

var predicateNames = map[Predicate]string{
	PriceAboveCloud:  "price_above_cloud",
	PriceBelowCloud:  "price_below_cloud",
	TenkanAboveKijun: "tenkan_above_kijun",
	TenkanBelowKijun: "tenkan_below_kijun",
	SpanAAboveSpanB:  "span_a_above_span_b",
	SpanABelowSpanB:  "span_a_below_span_b",
	ChikouAbovePrice: "chikou_above_price",
	ChikouBelowPrice: "chikou_below_price",
	ChikouAboveCloud: "chikou_above_cloud",
	ChikouBelowCloud: "chikou_below_cloud",
}

var predicatesByName = func() map[string]Predicate {
	m := make(map[string]Predicate, len(predicateNames))
	for p, name := range predicateNames {
		m[name] = p
	}
	return m
}()

// String returns the snake_case configuration name of the predicate
func (p Predicate) String() string {
	if name, ok := predicateNames[p]; ok {
		return name
	}
	return fmt.Sprintf("predicate(%d)", int(p))
}

// ParsePredicate resolves a configuration name to a Predicate. Names are
// normalized (case, spaces, dashes) before lookup; unknown names are an
// error, never silently dropped.
func ParsePredicate(name string) (Predicate, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for strings.Contains(normalized, "__") {
		normalized = strings.ReplaceAll(normalized, "__", "_")
	}

	p, ok := predicatesByName[normalized]
	if !ok {
		return 0, fmt.Errorf("unknown predicate %q", name)
	}
	return p, nil
}

// UnmarshalYAML parses a predicate from its configuration name
func (p *Predicate) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParsePredicate(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalYAML emits the predicate's configuration name
func (p Predicate) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// MarshalJSON emits the predicate's configuration name
func (p Predicate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// holds reports whether the predicate is true in the given condition set
func (p Predicate) holds(cs ichimoku.ConditionSet) bool {
	switch p {
	case PriceAboveCloud:
		return cs.PriceAboveCloud
	case PriceBelowCloud:
		return cs.PriceBelowCloud
	case TenkanAboveKijun:
		return cs.TenkanAboveKijun
	case TenkanBelowKijun:
		return cs.TenkanBelowKijun
	case SpanAAboveSpanB:
		return cs.SpanAAboveSpanB
	case SpanABelowSpanB:
		return cs.SpanABelowSpanB
	case ChikouAbovePrice:
		return cs.ChikouAbovePrice
	case ChikouBelowPrice:
		return cs.ChikouBelowPrice
	case ChikouAboveCloud:
		return cs.ChikouAboveCloud
	case ChikouBelowCloud:
		return cs.ChikouBelowCloud
	}
	return false
}
