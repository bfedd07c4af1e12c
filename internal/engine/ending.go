package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storydive/internal/models"
)

// Generator is the external text-generation collaborator. The ending
// judge and the story loop both consume it as a black box.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Keyword tables for deterministic ending classification. Heuristic and
// tunable, like the magnitude rules.
var (
	endingStateKeywords = []string{
		"체력", "생명", "생명력", "마나", "마력", "골드", "명성", "평판",
		"의지", "용기", "피로", "스트레스", "경험", "레벨",
		"hp", "mp", "health", "mana", "gold", "reputation", "level", "experience",
	}
	endingComparison = regexp.MustCompile(`(?i)(?:[<>=≤≥]|\d+|최대|최소|이상|이하|maximum|minimum)`)

	endingAchievementKeywords = []string{
		"달성", "완료", "획득", "도달", "성공", "클리어", "수집",
		"achieve", "complete", "obtain", "reach", "collect", "clear",
	}
	endingStoryKeywords = []string{
		"절망", "죽음", "죽는", "사망", "희생", "배신", "화해", "결심",
		"사랑", "복수", "포기", "목숨", "이별", "광기", "타락", "구원",
		"despair", "death", "dies", "sacrifice", "betray", "reconcil",
		"revenge", "madness", "redemption",
	}
)

// ClassifyEnding assigns the deterministic category to an ending
// condition. System conditions name a tracked value together with a
// comparison-style token; keyword conditions use simple achievement
// terms; story conditions use narratively complex terms and need a
// semantic judge. A condition matching both the system and the story
// pattern is hybrid. Conditions matching nothing default to story, the
// conservative bucket, since only the judge can evaluate free text.
func ClassifyEnding(condition string) models.EndingClass {
	lower := strings.ToLower(condition)

	isSystem := containsAny(lower, endingStateKeywords) && endingComparison.MatchString(condition)
	isStory := containsAny(lower, endingStoryKeywords)

	switch {
	case isSystem && isStory:
		return models.EndingClassHybrid
	case isSystem:
		return models.EndingClassSystem
	case isStory:
		return models.EndingClassStory
	case containsAny(lower, endingAchievementKeywords):
		return models.EndingClassKeyword
	default:
		return models.EndingClassStory
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

const endingJudgePromptTemplate = `당신은 인터랙티브 스토리의 엔딩 조건 판정관입니다.
아래의 최근 이야기와 현재 장면을 읽고, 나열된 엔딩 조건 중 하나가 명백하고 결정적으로 충족되었는지 판정해주세요.

[최근 이야기]
%s

[현재 장면]
%s

[엔딩 조건 목록]
%s
판정 규칙:
- 조건이 장면에서 명시적이고 결정적인 근거로 충족된 경우에만 해당 번호를 선택하세요.
- 암시, 가능성, 부분적 충족만으로는 절대 선택하지 마세요.
- 확신이 없으면 반드시 NONE을 답하세요.

답변은 정확히 한 줄, 다음 중 하나의 형식이어야 합니다:
TRIGGERED: <번호>
NONE`

var judgeTriggeredPattern = regexp.MustCompile(`(?i)TRIGGERED:\s*(\d+)`)

// EndingJudge evaluates story and hybrid ending conditions against the
// current scene via the external generator. System and keyword
// conditions are resolved deterministically by the caller and are never
// sent here.
type EndingJudge struct {
	gen    Generator
	logger *zap.Logger
}

// NewEndingJudge builds an EndingJudge over the given generator.
func NewEndingJudge(gen Generator, logger *zap.Logger) *EndingJudge {
	return &EndingJudge{gen: gen, logger: logger.Named("EndingJudge")}
}

// Evaluate returns at most one triggered ending, or nil. Only endings
// whose condition classifies as story or hybrid are considered, all in a
// single judge call per turn. Any generator failure, malformed response
// or ambiguity resolves to nil; the judge never fails a turn.
func (e *EndingJudge) Evaluate(ctx context.Context, narrative, recentHistory string, endings []models.EndingDefinition) *models.EndingDefinition {
	var candidates []models.EndingDefinition
	for _, ed := range endings {
		switch ClassifyEnding(ed.Condition) {
		case models.EndingClassStory, models.EndingClassHybrid:
			candidates = append(candidates, ed)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	var list strings.Builder
	for i, ed := range candidates {
		fmt.Fprintf(&list, "%d. %s (조건: %s)\n", i+1, ed.Name, ed.Condition)
	}

	prompt := fmt.Sprintf(endingJudgePromptTemplate, recentHistory, narrative, list.String())
	response, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.logger.Warn("ending judge call failed, no ending triggered", zap.Error(err))
		return nil
	}

	idx, ok := parseJudgeResponse(response, len(candidates))
	if !ok {
		return nil
	}
	triggered := candidates[idx]
	e.logger.Info("ending triggered", zap.String("name", triggered.Name))
	return &triggered
}

// parseJudgeResponse extracts the triggered index from the judge output.
// Anything that is not an unambiguous in-range TRIGGERED line counts as
// no ending.
func parseJudgeResponse(response string, count int) (int, bool) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" || strings.EqualFold(strings.SplitN(trimmed, "\n", 2)[0], "NONE") {
		return 0, false
	}
	m := judgeTriggeredPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}
