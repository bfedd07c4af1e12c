package engine

import (
	"math"
	"strings"

	"storydive/internal/models"
)

// MagnitudeRule maps state-name keywords to the minimum meaningful
// change for that kind of value. Consulted in order; first match wins.
type MagnitudeRule struct {
	Keywords []string
	Minimum  float64
}

// DefaultMagnitudeRules returns the production keyword table. The
// mapping is heuristic and tunable; callers may supply their own.
func DefaultMagnitudeRules() []MagnitudeRule {
	return []MagnitudeRule{
		{Keywords: []string{"체력", "생명", "hp", "health", "vitality", "life"}, Minimum: 5},
		{Keywords: []string{"마나", "마력", "mp", "mana", "magic"}, Minimum: 3},
		{Keywords: []string{"골드", "돈", "재화", "gold", "money", "coin", "currency"}, Minimum: 10},
		{Keywords: []string{"명성", "평판", "reputation", "fame"}, Minimum: 2},
		{Keywords: []string{"의지", "용기", "willpower", "courage"}, Minimum: 3},
		{Keywords: []string{"피로", "스트레스", "fatigue", "stress"}, Minimum: 3},
		{Keywords: []string{"경험", "exp", "experience"}, Minimum: 5},
	}
}

// Normalizer rewrites out-of-range delta magnitudes before they are
// applied, so that a value near zero still receives a narratively
// meaningful change and runaway deltas stay bounded.
type Normalizer struct {
	rules      []MagnitudeRule
	defaultMin float64
}

// NewNormalizer builds a Normalizer over the given rule table. A nil
// table means DefaultMagnitudeRules.
func NewNormalizer(rules []MagnitudeRule) *Normalizer {
	if rules == nil {
		rules = DefaultMagnitudeRules()
	}
	return &Normalizer{rules: rules, defaultMin: 1}
}

// MinimumFor classifies a state name by case-insensitive substring match
// and returns its minimum change magnitude.
func (n *Normalizer) MinimumFor(name string) float64 {
	lower := strings.ToLower(name)
	for _, rule := range n.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Minimum
			}
		}
	}
	return n.defaultMin
}

// Normalize returns the directive with its magnitude adjusted. Only
// relative directives are touched; `=` sets an exact target and passes
// through unchanged. A nonzero magnitude below the classified minimum is
// raised to it; a magnitude above 10x the minimum is capped at 8x. Sign
// is preserved.
func (n *Normalizer) Normalize(d models.Directive) models.Directive {
	if d.Op == models.OpSet {
		return d
	}
	min := n.MinimumFor(d.Name)
	mag := math.Abs(d.Value)
	switch {
	case mag == 0:
		return d
	case mag < min:
		mag = min
	case mag > 10*min:
		mag = 8 * min
	}
	d.Value = math.Copysign(mag, d.Value)
	return d
}
