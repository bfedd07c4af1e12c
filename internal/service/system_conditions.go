package service

import (
	"regexp"
	"strconv"
	"strings"

	"storydive/internal/models"
)

var (
	comparisonPattern = regexp.MustCompile(`(<=|>=|==|!=|<|>|=)\s*(-?\d+(?:\.\d+)?)`)
	// Korean postfix comparisons: "체력 0 이하", "명성 100 이상"
	koreanComparison = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(이상|이하)`)
)

// ResolveSystemCondition deterministically evaluates a system-classified
// ending condition against the state map. The condition must name a
// declared state and carry a recognizable comparison; anything the
// parser cannot pin down resolves to false rather than guessing.
func ResolveSystemCondition(condition string, state models.StateMap) bool {
	name := matchStateName(condition, state)
	if name == "" {
		return false
	}
	value := state[name]

	if m := comparisonPattern.FindStringSubmatch(condition); m != nil {
		threshold, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return false
		}
		switch m[1] {
		case "<=":
			return value <= threshold
		case ">=":
			return value >= threshold
		case "<":
			return value < threshold
		case ">":
			return value > threshold
		case "=", "==":
			return value == threshold
		case "!=":
			return value != threshold
		}
		return false
	}

	if m := koreanComparison.FindStringSubmatch(condition); m != nil {
		threshold, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return false
		}
		if m[2] == "이상" {
			return value >= threshold
		}
		return value <= threshold
	}

	return false
}

// matchStateName returns the longest declared state name that appears in
// the condition text, so "최대 체력" prefers a declared "최대 체력" over
// a declared "체력".
func matchStateName(condition string, state models.StateMap) string {
	lower := strings.ToLower(condition)
	best := ""
	for name := range state {
		if strings.Contains(lower, strings.ToLower(name)) && len(name) > len(best) {
			best = name
		}
	}
	return best
}
