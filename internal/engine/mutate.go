package engine

import (
	"go.uber.org/zap"

	"storydive/internal/models"
)

// ApplyDirective applies one accepted, normalized directive to the state
// map. Only values of existing keys are updated; keys are never added or
// removed. Returns the new value and whether the directive was applied.
func ApplyDirective(state models.StateMap, d models.Directive) (float64, bool) {
	current, ok := state[d.Name]
	if !ok {
		return 0, false
	}
	switch d.Op {
	case models.OpAdd:
		state[d.Name] = current + d.Value
	case models.OpSub:
		state[d.Name] = current - d.Value
	case models.OpSet:
		state[d.Name] = d.Value
	default:
		return 0, false
	}
	return state[d.Name], true
}

// Processor runs the full directive pipeline on a narrative block:
// lexing, magnitude normalization and state mutation.
type Processor struct {
	normalizer *Normalizer
	logger     *zap.Logger
}

// NewProcessor builds a Processor. A nil rule table selects the default
// magnitude rules.
func NewProcessor(rules []MagnitudeRule, logger *zap.Logger) *Processor {
	return &Processor{
		normalizer: NewNormalizer(rules),
		logger:     logger.Named("DirectiveProcessor"),
	}
}

// Apply extracts directives from the text, normalizes their magnitudes
// and mutates the state map in place. It returns the cleaned narrative,
// the applied deltas as name to new value, and the rejected directives.
// Rejections are silent; they never fail the turn.
func (p *Processor) Apply(text string, state models.StateMap) (string, map[string]float64, []models.Directive) {
	lexed := ExtractDirectives(text, state, p.logger)

	applied := make(map[string]float64)
	for _, d := range lexed.Accepted {
		normalized := p.normalizer.Normalize(d)
		newValue, ok := ApplyDirective(state, normalized)
		if !ok {
			lexed.Rejected = append(lexed.Rejected, d)
			continue
		}
		applied[normalized.Name] = newValue
		p.logger.Debug("state updated",
			zap.String("name", normalized.Name),
			zap.String("op", string(normalized.Op)),
			zap.Float64("value", normalized.Value),
			zap.Float64("newValue", newValue))
	}
	return lexed.Cleaned, applied, lexed.Rejected
}
