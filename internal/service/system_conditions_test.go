package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storydive/internal/models"
)

func TestResolveSystemCondition(t *testing.T) {
	state := models.StateMap{"체력": 0, "골드": 120, "명성": 50}

	cases := []struct {
		name      string
		condition string
		expected  bool
	}{
		{"korean at-most met", "체력 0 이하", true},
		{"korean at-most not met", "골드 10 이하", false},
		{"korean at-least met", "골드 100 이상", true},
		{"korean at-least not met", "명성 100 이상", false},
		{"ascii less-equal", "체력 <= 0", true},
		{"ascii greater", "골드 > 100", true},
		{"ascii greater not met", "골드 > 500", false},
		{"ascii equals", "명성 = 50", true},
		{"double equals", "명성 == 50", true},
		{"not equals", "명성 != 50", false},
		{"undeclared state", "마나 0 이하", false},
		{"no comparison at all", "체력이 바닥난다", false},
		{"empty condition", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ResolveSystemCondition(tc.condition, state))
		})
	}
}

func TestResolveSystemCondition_LongestNameWins(t *testing.T) {
	state := models.StateMap{"체력": 100, "최대 체력": 100}
	assert.True(t, ResolveSystemCondition("최대 체력 100 이상", state))
}

func TestResolveSystemCondition_CaseInsensitiveName(t *testing.T) {
	state := models.StateMap{"HP": 5}
	assert.True(t, ResolveSystemCondition("hp <= 5", state))
}
