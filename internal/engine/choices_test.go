package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storydive/internal/models"
)

func TestNormalizeChoices(t *testing.T) {
	lines := []string{
		"마을을 탐험한다",
		"주점에 들어간다",
		"마을을 탐험한다", // duplicate
		"아", // too short
		"성벽을 따라 걷는다",
	}

	got := NormalizeChoices(lines, 4)

	require.Len(t, got, 3)
	assert.Equal(t, "choice_1", got[0].ID)
	assert.Equal(t, "choice_2", got[1].ID)
	assert.Equal(t, "choice_3", got[2].ID)
	assert.Equal(t, "마을을 탐험한다", got[0].Text)
	assert.Equal(t, "성벽을 따라 걷는다", got[2].Text)
}

func TestNormalizeChoices_TruncatesToMax(t *testing.T) {
	lines := []string{"하나 둘", "둘 셋", "셋 넷", "넷 다섯", "다섯 여섯"}

	got := NormalizeChoices(lines, 4)

	assert.Len(t, got, 4)
	assert.Equal(t, "choice_4", got[3].ID)
}

func TestRetryPolicy_Evaluate(t *testing.T) {
	p := DefaultRetryPolicy()
	two := []models.Choice{{ID: "choice_1", Text: "첫 번째"}, {ID: "choice_2", Text: "두 번째"}}
	one := two[:1]

	assert.Equal(t, OutcomeSuccess, p.Evaluate(1, two))
	assert.Equal(t, OutcomeRetry, p.Evaluate(1, one))
	assert.Equal(t, OutcomeRetry, p.Evaluate(2, nil))
	assert.Equal(t, OutcomeExhausted, p.Evaluate(3, one))
	assert.Equal(t, OutcomeSuccess, p.Evaluate(3, two))
}

func TestRetryPolicy_AugmentPrompt(t *testing.T) {
	p := DefaultRetryPolicy()
	prompt := "다음 이야기를 생성해주세요."

	assert.Equal(t, prompt, p.AugmentPrompt(prompt, 1))

	augmented := p.AugmentPrompt(prompt, 2)
	assert.Contains(t, augmented, prompt)
	assert.Contains(t, augmented, "선택지 앞에 - 를")
}

func TestFallbackChoices_Zero(t *testing.T) {
	got := FallbackChoices(nil)

	require.Len(t, got, 2)
	assert.Equal(t, "계속한다...", got[0].Text)
	assert.Equal(t, "다른 행동을 시도한다.", got[1].Text)
}

func TestFallbackChoices_One(t *testing.T) {
	parsed := []models.Choice{{ID: "choice_1", Text: "문을 연다"}}

	got := FallbackChoices(parsed)

	require.Len(t, got, 2)
	assert.Equal(t, "문을 연다", got[0].Text)
	assert.Equal(t, "다른 가능성을 찾아본다.", got[1].Text)
}

func TestFallbackChoices_EnoughAlready(t *testing.T) {
	parsed := []models.Choice{
		{ID: "choice_1", Text: "싸운다"},
		{ID: "choice_2", Text: "도망친다"},
	}

	got := FallbackChoices(parsed)

	assert.Equal(t, parsed, got)
}

func TestErrorChoices(t *testing.T) {
	got := ErrorChoices()

	require.Len(t, got, 2)
	assert.Equal(t, "error_api_1", got[0].ID)
	assert.Equal(t, "새 게임 시작하기", got[1].Text)
}
