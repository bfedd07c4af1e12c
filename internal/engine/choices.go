package engine

import (
	"fmt"
	"strings"

	"storydive/internal/models"
)

// retryHint is appended to the prompt from the second attempt on.
const retryHint = "\n\n(중요: 반드시 선택지 앞에 - 를 붙여서 생성해주세요.)"

// Fallback texts for exhausted extraction and for generator failures.
const (
	fallbackContinue   = "계속한다..."
	fallbackTryOther   = "다른 행동을 시도한다."
	fallbackMoreOption = "다른 가능성을 찾아본다."

	errorChoiceAck     = "알겠습니다. (오류)"
	errorChoiceRestart = "새 게임 시작하기"

	// PlaceholderNarrative replaces the story text when the generator
	// fails on the final attempt.
	PlaceholderNarrative = "이야기 생성 중 오류가 발생하여 내용을 가져올 수 없었습니다."
)

// AttemptOutcome is the transition taken after one generation attempt.
type AttemptOutcome int

const (
	// OutcomeSuccess means the success predicate held.
	OutcomeSuccess AttemptOutcome = iota
	// OutcomeRetry means another attempt should be made.
	OutcomeRetry
	// OutcomeExhausted means the attempt budget is spent and fallback
	// choices must be constructed.
	OutcomeExhausted
)

// RetryPolicy drives the bounded extraction retry loop. The policy does
// not call the generator itself; the orchestrating caller re-invokes it
// once per attempt and consults the policy for the success predicate and
// the prompt augmentation.
type RetryPolicy struct {
	MaxAttempts int
	MinChoices  int
	MaxChoices  int
}

// DefaultRetryPolicy returns the production policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, MinChoices: 2, MaxChoices: 4}
}

// Satisfied reports whether the extracted choices meet the minimum.
func (p RetryPolicy) Satisfied(choices []models.Choice) bool {
	return len(choices) >= p.MinChoices
}

// Evaluate maps one attempt's result onto the next transition.
func (p RetryPolicy) Evaluate(attempt int, choices []models.Choice) AttemptOutcome {
	if p.Satisfied(choices) {
		return OutcomeSuccess
	}
	if attempt >= p.MaxAttempts {
		return OutcomeExhausted
	}
	return OutcomeRetry
}

// AugmentPrompt returns the prompt for the given attempt. From the
// second attempt on, a formatting instruction is appended so the
// generator prefixes each choice with a list marker.
func (p RetryPolicy) AugmentPrompt(prompt string, attempt int) string {
	if attempt <= 1 {
		return prompt
	}
	return prompt + retryHint
}

// NormalizeChoices turns raw choice lines into Choice values: trimmed,
// de-duplicated, minimum length 3, order preserved, capped at max. IDs
// are choice_1..choice_n in display order.
func NormalizeChoices(lines []string, max int) []models.Choice {
	seen := make(map[string]struct{}, len(lines))
	var out []models.Choice
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if len([]rune(text)) <= 2 {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, models.Choice{
			ID:   fmt.Sprintf("choice_%d", len(out)+1),
			Text: text,
		})
		if len(out) >= max {
			break
		}
	}
	return out
}

// FallbackChoices pads an under-sized choice list after the retry budget
// is exhausted: zero parsed choices yield two generic continuations, one
// parsed choice gets one generic companion.
func FallbackChoices(parsed []models.Choice) []models.Choice {
	switch len(parsed) {
	case 0:
		return []models.Choice{
			{ID: "fallback_0_1", Text: fallbackContinue},
			{ID: "fallback_0_2", Text: fallbackTryOther},
		}
	case 1:
		return append(parsed, models.Choice{ID: "fallback_1_1", Text: fallbackMoreOption})
	default:
		return parsed
	}
}

// ErrorChoices is the recovery choice set returned when the generator
// itself fails on the final attempt.
func ErrorChoices() []models.Choice {
	return []models.Choice{
		{ID: "error_api_1", Text: errorChoiceAck},
		{ID: "error_api_2", Text: errorChoiceRestart},
	}
}
