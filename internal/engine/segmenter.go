package engine

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SegmentRules is the declarative grammar consumed by Segment. One table
// drives both the marker split and the line-classification fallback, so
// the heuristics live in a single place.
type SegmentRules struct {
	// Markers are choice-section headers in priority order. The first
	// marker found (case-insensitive) wins and the split happens at its
	// first occurrence.
	Markers []string
	// ChoicePrefix matches list-style line starts (dash, bullet,
	// numbered, lettered). Group 1 is the choice text.
	ChoicePrefix *regexp.Regexp
	// StoryKeywords disqualify a prefix-matched line from being treated
	// as a choice when no choice has been collected yet.
	StoryKeywords []string
	// MaxChoiceLineLen disqualifies over-long prefix-matched lines.
	MaxChoiceLineLen int
	// ContinuationMaxLen bounds soft-wrapped continuation lines that get
	// appended to the previous choice.
	ContinuationMaxLen int
	// StoryLabel strips a leading narrative label from the story part.
	StoryLabel *regexp.Regexp
	// TrailingPhrases are leftover prompt fragments stripped from the
	// end of the narrative.
	TrailingPhrases []*regexp.Regexp
	// MaxChoices caps the number of collected choice lines.
	MaxChoices int
}

// DefaultSegmentRules returns the rule table tuned for the narrator
// prompts in use. Generator output mixes Korean and English headers.
func DefaultSegmentRules() SegmentRules {
	return SegmentRules{
		Markers: []string{
			"\n선택지:", "\nChoices:", "\n선택지 목록:",
			"\n**선택지:**", "\n**Choices:**", "\n**당신의 선택은?**",
			"\n다음 선택지 중에서 골라주세요:", "\n다음 행동을 선택하세요:",
		},
		ChoicePrefix:       regexp.MustCompile(`^(?:[-*•✓✔※◦]|[가-힣]\.|[a-zA-Z]\.|\d+\.)\s+(.+)`),
		StoryKeywords:      []string{"이야기:", "상황:", "갑자기", "그때", "그리고", "하지만", "결국", "문득"},
		MaxChoiceLineLen:   80,
		ContinuationMaxLen: 60,
		StoryLabel:         regexp.MustCompile(`(?i)^(이야기|Story):\s*`),
		TrailingPhrases: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:당신의 선택은\??|무엇을 선택하시겠습니까\??|어떻게 하시겠습니까\??|What will you choose\??|What do you do\??)\s*$`),
		},
		MaxChoices: 4,
	}
}

// Segmented is the result of one segmentation pass.
type Segmented struct {
	Narrative   string
	ChoiceLines []string
}

// Segment splits raw generated text into a narrative part and raw choice
// lines. When a marker is present everything before it is narrative and
// everything after is parsed as a choice list. Without a marker a
// line-classification pass separates story prose from choice-like lines.
// If neither path finds a choice-like line the whole text is narrative.
func (r SegmentRules) Segment(raw string) Segmented {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Segmented{}
	}

	if start, end := r.findMarker(text); start >= 0 {
		preMarker := strings.TrimSpace(text[:start])
		preMarker = r.StoryLabel.ReplaceAllString(preMarker, "")
		narrative := r.stripTrailing(preMarker)
		section := strings.TrimSpace(text[end:])

		choices := r.parseChoiceSection(section)
		if narrative == "" {
			// everything before the marker was a trailing prompt phrase;
			// keep it rather than leak the marker into the narrative
			narrative = preMarker
		}
		return Segmented{Narrative: narrative, ChoiceLines: choices}
	}

	narrative, choices := r.classifyLines(text)
	if len(choices) == 0 {
		return Segmented{Narrative: r.stripTrailing(text)}
	}
	if narrative == "" {
		narrative = text
	}
	return Segmented{Narrative: r.stripTrailing(narrative), ChoiceLines: choices}
}

// findMarker returns the byte range of the first occurrence of the first
// marker from the priority list present in the text (case-insensitive),
// or (-1, -1) when none is present. Offsets are resolved against the
// original text, not a lowered copy, since case mapping can change rune
// byte lengths.
func (r SegmentRules) findMarker(text string) (int, int) {
	for _, marker := range r.Markers {
		if start, end := foldIndex(text, marker); start >= 0 {
			return start, end
		}
	}
	return -1, -1
}

// foldIndex is a case-insensitive strings.Index that reports both ends
// of the match as byte offsets into text.
func foldIndex(text, sub string) (int, int) {
	for i := range text {
		if end, ok := foldPrefixEnd(text[i:], sub); ok {
			return i, i + end
		}
	}
	return -1, -1
}

// foldPrefixEnd reports whether text starts with sub under simple case
// folding and, if so, the byte length of the matched prefix in text.
func foldPrefixEnd(text, sub string) (int, bool) {
	i := 0
	for _, sr := range sub {
		tr, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 || unicode.ToLower(tr) != unicode.ToLower(sr) {
			return 0, false
		}
		i += size
	}
	return i, true
}

// parseChoiceSection turns the text after a marker into choice lines.
// Prefix-matched lines start a new choice; short unprefixed lines are
// soft-wrap continuations of the previous one. An empty section yields
// zero choices.
func (r SegmentRules) parseChoiceSection(section string) []string {
	if section == "" {
		return nil
	}
	var choices []string
	var current string
	for _, line := range strings.Split(section, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if m := r.ChoicePrefix.FindStringSubmatch(stripped); m != nil {
			if current != "" {
				choices = append(choices, current)
			}
			current = cleanChoiceText(m[1])
		} else if current != "" {
			current += " " + stripped
		} else {
			current = cleanChoiceText(stripped)
		}
	}
	if current != "" {
		choices = append(choices, current)
	}
	return choices
}

// classifyLines is the no-marker fallback. It walks the lines once,
// collecting leading prose as narrative and subsequent choice-like lines
// as choices. A prefix-matched line only counts as a choice if it is not
// disqualified by story keywords or excessive length, unless choices are
// already being collected.
func (r SegmentRules) classifyLines(text string) (string, []string) {
	var storyLines []string
	var choices []string
	current := ""
	collectingStory := true

	flush := func() {
		if current != "" {
			choices = append(choices, current)
			current = ""
		}
	}

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}

		likelyStory := r.hasStoryKeyword(stripped) || len([]rune(stripped)) > r.MaxChoiceLineLen
		m := r.ChoicePrefix.FindStringSubmatch(stripped)

		switch {
		case m != nil && (!likelyStory || len(choices) > 0) && len(choices) < r.MaxChoices:
			collectingStory = false
			flush()
			current = cleanChoiceText(m[1])
		case !collectingStory && current != "":
			switch {
			case m == nil && len([]rune(stripped)) < r.ContinuationMaxLen:
				current += " " + stripped
			case m != nil:
				flush()
				current = cleanChoiceText(m[1])
			default:
				// a long prose line mid-list ends choice collection
				flush()
				collectingStory = true
				storyLines = append(storyLines, line)
			}
		case collectingStory:
			storyLines = append(storyLines, line)
		}
	}
	flush()
	if len(choices) > r.MaxChoices {
		choices = choices[:r.MaxChoices]
	}

	return strings.TrimSpace(strings.Join(storyLines, "\n")), choices
}

func (r SegmentRules) hasStoryKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range r.StoryKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (r SegmentRules) stripTrailing(narrative string) string {
	out := strings.TrimSpace(narrative)
	for _, p := range r.TrailingPhrases {
		out = strings.TrimSpace(p.ReplaceAllString(out, ""))
	}
	return out
}

func cleanChoiceText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
}
