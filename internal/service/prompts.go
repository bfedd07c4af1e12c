package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"storydive/internal/engine"
	"storydive/internal/models"
)

// History condensation thresholds, in characters of history text.
const (
	maxHistoryChars    = 2800
	summaryTargetChars = 800
	recentHistoryKept  = 1000
)

const continuePromptTemplate = `당신은 대화형 스토리 게임의 AI 스토리텔러입니다.
사용자의 선택이나 행동에 따라 흥미진진하고 일관성 있는 이야기를 생성해야 합니다.
주어진 이야기 맥락과 사용자의 최근 행동을 바탕으로 다음 이야기와 선택지를 만들어주세요.

[현재까지의 이야기]
%s

[사용자의 최근 행동/선택]
%s

[지시사항]
1. 다음 이야기 세그먼트는 최소 150자 이상으로 작성해주세요.
2. 사용자가 선택할 수 있는 선택지 3-4개를 제공해주세요. 각 선택지는 '-' 문자로 시작하고 50자 내외여야 합니다.
3. 이야기는 사용자의 이전 선택과 세계관 설정을 충실히 반영해야 합니다.
4. 응답은 이야기 전개와 선택지만 포함해야 하며, 그 외의 설명이나 인사말은 제외해주세요.
%s
이제 다음 이야기와 선택지를 생성해주세요:
`

const systemsBlockTemplate = `
--- 존재하는 게임 시스템 ---
다음은 이 세계관에서 현재 사용 중인 시스템 목록과 현재 값입니다:
%s
만약 이야기의 결과로 위에 명시된 시스템들의 값만 변경되어야 한다면, 반드시 다음 형식으로 이야기 마지막에 포함시켜 응답해주세요.
위에 명시되지 않은 시스템 이름을 임의로 만들거나 수정하려고 시도하지 마세요.
형식: [SYSTEM_UPDATE: 시스템명(+|-)변경값] 또는 [SYSTEM_UPDATE: 시스템명=새로운절대값]
예시: [SYSTEM_UPDATE: 골드+10] [SYSTEM_UPDATE: 체력-5]
시스템 값 변경이 없다면 이 부분을 포함하지 마세요.
-------------------------
`

const startPromptTemplate = `당신은 세계관 설정에 기반하여 이야기를 생성하고, 사용자의 선택에 따라 다음 이야기를 이어가는 AI 스토리텔러입니다.
세계관:
%s

모험을 시작합니다. 이 세계관을 배경으로 흥미로운 시작 상황을 묘사하고, 플레이어가 선택할 수 있는 2가지에서 4가지 사이의 선택지를 제시해주세요.
각 선택지는 다음처럼 '-' 문자로 시작하고, 한 문장으로 간결하게 설명해주세요. (예: "- 주변을 더 자세히 살펴본다.")
이야기는 최소 150자 이상이어야 합니다. 선택지는 각 50자 내외로 작성해주세요.
%s
다음 이야기와 선택지를 생성해주세요:
`

const choicesOnlyPromptTemplate = `당신은 사용자가 제공한 이야기의 시작점에 대한 응답으로, 플레이어가 취할 수 있는 행동 선택지를 생성하는 AI입니다.

사용자가 제공한 이야기의 시작점:
"%s"

이 시작점에서 바로 이어지는 상황에서 플레이어가 취할 수 있는 행동 선택지를 2개에서 4개 사이로 만들어주세요.
각 선택지는 다음처럼 '-' 문자로 시작하고, 한 문장으로 간결하게 설명해주세요. (예: "- 주변을 더 자세히 살펴본다.")
선택지만 제공해주세요.
선택지:
`

const summarizePromptTemplate = `다음은 대화형 스토리 게임의 진행 내용입니다. 이 내용을 바탕으로 사용자가 앞으로의 이야기를 이해하는 데 필요한 핵심 정보만 남기고 간결하게 요약해주세요.
등장인물, 주요 사건, 현재 상황, 해결해야 할 문제 등을 중심으로 요약하고, 너무 세부적인 대화나 묘사는 생략해주세요.
요약은 %d자 이내로 해주세요.

[전체 이야기 내용]
%s

[요약 결과]
`

// buildSystemsBlock renders the declared systems and their current
// values for the prompt. Names are sorted for a stable prompt.
func buildSystemsBlock(state models.StateMap, configs map[string]models.SystemConfig) string {
	if len(state) == 0 {
		return ""
	}
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	var list strings.Builder
	for _, name := range names {
		desc := ""
		if cfg, ok := configs[name]; ok && cfg.Description != "" {
			desc = " (" + cfg.Description + ")"
		}
		fmt.Fprintf(&list, "- %s: %.6g%s\n", name, state[name], desc)
	}
	return fmt.Sprintf(systemsBlockTemplate, list.String())
}

func buildContinuePrompt(history, playerAction string, state models.StateMap, configs map[string]models.SystemConfig) string {
	return fmt.Sprintf(continuePromptTemplate, history, playerAction, buildSystemsBlock(state, configs))
}

func buildStartPrompt(worldSetting string, state models.StateMap, configs map[string]models.SystemConfig) string {
	return fmt.Sprintf(startPromptTemplate, worldSetting, buildSystemsBlock(state, configs))
}

func buildChoicesOnlyPrompt(startingPoint string) string {
	return fmt.Sprintf(choicesOnlyPromptTemplate, startingPoint)
}

// condenseHistory shortens over-long story history before prompting:
// everything but a recent tail is summarized via the generator and the
// tail is kept verbatim. On summarization failure the recent tail alone
// is used; the stored history is never modified.
func condenseHistory(ctx context.Context, gen engine.Generator, history string, log *zap.Logger) string {
	runes := []rune(history)
	if len(runes) <= maxHistoryChars {
		return history
	}

	var toSummarize, recent string
	if len(runes) > maxHistoryChars+recentHistoryKept {
		toSummarize = string(runes[:len(runes)-recentHistoryKept])
		recent = string(runes[len(runes)-recentHistoryKept:])
	} else {
		split := len(runes) - recentHistoryKept/2
		if split < 0 {
			split = 0
		}
		toSummarize = string(runes[:split])
		recent = string(runes[split:])
	}
	if toSummarize == "" {
		return recent
	}

	prompt := fmt.Sprintf(summarizePromptTemplate, summaryTargetChars, toSummarize)
	summary, err := gen.Generate(ctx, prompt)
	if err != nil {
		log.Warn("history summarization failed, keeping recent part only", zap.Error(err))
		return recent
	}
	return strings.TrimSpace(summary) + "\n\n[...이전 이야기의 최근 부분...]\n" + recent
}
