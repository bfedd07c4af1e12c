package engine

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storydive/internal/models"
)

// directivePattern matches one inline state-mutation tag. The name is a
// non-greedy run up to the operator; the value part is matched loosely
// and validated afterwards so that malformed numbers still get the tag
// stripped from player-visible text.
var directivePattern = regexp.MustCompile(`\[SYSTEM_UPDATE:\s*(.+?)\s*([+\-=])\s*([^\]]*?)\s*\]`)

// LexResult is the outcome of one directive pass over a narrative block.
type LexResult struct {
	Cleaned  string
	Accepted []models.Directive
	Rejected []models.Directive
}

// ExtractDirectives finds all state-mutation tags in the text in a
// single left-to-right pass. Every matched tag is removed from the
// cleaned text whether or not its directive is accepted. A directive is
// rejected, never raised, when its name is not a declared state key or
// its value does not parse as a number. The StateMap is read-only here.
func ExtractDirectives(text string, state models.StateMap, log *zap.Logger) LexResult {
	res := LexResult{}
	res.Cleaned = directivePattern.ReplaceAllStringFunc(text, func(tag string) string {
		m := directivePattern.FindStringSubmatch(tag)
		if m == nil {
			return ""
		}
		d := models.Directive{
			Name:      strings.TrimSpace(m[1]),
			Op:        models.Operator(m[2]),
			SourceTag: tag,
		}

		value, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			log.Warn("directive value is not a number, dropping",
				zap.String("tag", tag), zap.String("value", m[3]))
			res.Rejected = append(res.Rejected, d)
			return ""
		}
		d.Value = value

		if d.Op != models.OpAdd && d.Op != models.OpSub && d.Op != models.OpSet {
			log.Warn("directive has unknown operator, dropping", zap.String("tag", tag))
			res.Rejected = append(res.Rejected, d)
			return ""
		}

		if _, declared := state[d.Name]; !declared {
			log.Warn("directive references undeclared state, dropping",
				zap.String("tag", tag), zap.String("name", d.Name))
			res.Rejected = append(res.Rejected, d)
			return ""
		}

		res.Accepted = append(res.Accepted, d)
		return ""
	})

	res.Cleaned = tidyAfterRemoval(res.Cleaned)
	return res
}

var multiSpace = regexp.MustCompile(`[ \t]{2,}`)

// tidyAfterRemoval collapses the whitespace holes tag removal leaves
// behind in the middle of sentences.
func tidyAfterRemoval(s string) string {
	s = multiSpace.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
