package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storydive/internal/engine"
	"storydive/internal/models"
	"storydive/internal/repository"
)

// Action types accepted by HandleAction.
const (
	ActionStartNewAdventure = "start_new_adventure"
	ActionContinueAdventure = "continue_adventure"
	ActionLoadStory         = "load_story"
)

// maxOngoingAdventures caps the per-user ongoing-adventure list; the
// least recently played entries are evicted beyond it.
const maxOngoingAdventures = 5

// summaryMaxChars bounds the adventure-list summary text.
const summaryMaxChars = 120

// ActionRequest is one player action.
type ActionRequest struct {
	ActionType string    `json:"action_type"`
	ActionText string    `json:"action_text"`
	SessionID  string    `json:"session_id"`
	WorldID    uuid.UUID `json:"world_key"`
}

// TurnResponse is the finalized result returned to the client.
type TurnResponse struct {
	NewStorySegment string                   `json:"new_story_segment"`
	Choices         []models.Choice          `json:"choices"`
	History         string                   `json:"history"`
	SessionID       string                   `json:"session_id"`
	WorldID         uuid.UUID                `json:"world_id"`
	WorldTitle      string                   `json:"world_title"`
	Systems         models.StateMap          `json:"systems,omitempty"`
	StateDeltas     map[string]float64       `json:"state_deltas,omitempty"`
	Ending          *models.EndingDefinition `json:"ending,omitempty"`
}

// StoryService drives the story loop: one player action in, one
// finalized turn out.
type StoryService interface {
	HandleAction(ctx context.Context, userID uuid.UUID, req ActionRequest) (*TurnResponse, error)
}

var _ StoryService = (*storyService)(nil)

type storyService struct {
	gen       engine.Generator
	rules     engine.SegmentRules
	policy    engine.RetryPolicy
	processor *engine.Processor
	judge     *engine.EndingJudge

	worlds     repository.WorldRepository
	stories    repository.StoryRepository
	adventures repository.AdventureRepository
	sessions   repository.SessionStore

	logger *zap.Logger
}

// NewStoryService wires the story loop together.
func NewStoryService(
	gen engine.Generator,
	worlds repository.WorldRepository,
	stories repository.StoryRepository,
	adventures repository.AdventureRepository,
	sessions repository.SessionStore,
	logger *zap.Logger,
) StoryService {
	return &storyService{
		gen:        gen,
		rules:      engine.DefaultSegmentRules(),
		policy:     engine.DefaultRetryPolicy(),
		processor:  engine.NewProcessor(nil, logger),
		judge:      engine.NewEndingJudge(gen, logger),
		worlds:     worlds,
		stories:    stories,
		adventures: adventures,
		sessions:   sessions,
		logger:     logger.Named("StoryService"),
	}
}

func (s *storyService) HandleAction(ctx context.Context, userID uuid.UUID, req ActionRequest) (*TurnResponse, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", models.ErrValidationFailed)
	}

	switch req.ActionType {
	case ActionStartNewAdventure:
		if req.WorldID == uuid.Nil {
			return nil, fmt.Errorf("%w: world_key is required", models.ErrValidationFailed)
		}
		return s.startNewAdventure(ctx, userID, req)
	case ActionContinueAdventure:
		if req.WorldID == uuid.Nil {
			return nil, fmt.Errorf("%w: world_key is required", models.ErrValidationFailed)
		}
		if req.ActionText == "" {
			return nil, fmt.Errorf("%w: action_text is required", models.ErrValidationFailed)
		}
		return s.continueAdventure(ctx, userID, req)
	case ActionLoadStory:
		return s.loadStory(ctx, userID, req)
	default:
		return nil, fmt.Errorf("%w: unknown action type %q", models.ErrValidationFailed, req.ActionType)
	}
}

func (s *storyService) startNewAdventure(ctx context.Context, userID uuid.UUID, req ActionRequest) (*TurnResponse, error) {
	world, err := s.worlds.GetByID(ctx, req.WorldID)
	if err != nil {
		return nil, err
	}
	state := world.InitialState()

	var turn *models.Turn
	if world.StartingPoint != nil && *world.StartingPoint != "" {
		// the author wrote the opening scene, only choices are generated
		turn = s.generateTurn(ctx, buildChoicesOnlyPrompt(*world.StartingPoint))
		turn.NarrativeText = *world.StartingPoint
	} else {
		turn = s.generateTurn(ctx, buildStartPrompt(world.Setting, state, world.SystemConfigs))
	}

	cleaned, deltas, _ := s.processor.Apply(turn.NarrativeText, state)
	turn.NarrativeText = cleaned
	turn.StateDeltas = deltas

	history := turn.NarrativeText
	if world.Setting != "" {
		history = world.Setting + "\n\n" + turn.NarrativeText
	}

	ending := s.evaluateEndings(ctx, turn.NarrativeText, history, world.Endings, state)

	sessionState := &models.SessionState{
		SessionID:      req.SessionID,
		UserID:         userID,
		WorldID:        world.ID,
		WorldTitle:     world.Title,
		History:        history,
		ActiveSystems:  state,
		SystemConfigs:  world.SystemConfigs,
		LastAIResponse: turn.NarrativeText,
		LastChoices:    turn.Choices,
	}
	s.persistTurn(ctx, sessionState, ending)

	return &TurnResponse{
		NewStorySegment: turn.NarrativeText,
		Choices:         turn.Choices,
		History:         history,
		SessionID:       req.SessionID,
		WorldID:         world.ID,
		WorldTitle:      world.Title,
		Systems:         state,
		StateDeltas:     deltas,
		Ending:          ending,
	}, nil
}

func (s *storyService) continueAdventure(ctx context.Context, userID uuid.UUID, req ActionRequest) (*TurnResponse, error) {
	sessionState, err := s.restoreSession(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	state := sessionState.ActiveSystems

	promptHistory := condenseHistory(ctx, s.gen, sessionState.History, s.logger)
	prompt := buildContinuePrompt(promptHistory, req.ActionText, state, sessionState.SystemConfigs)

	turn := s.generateTurn(ctx, prompt)

	cleaned, deltas, _ := s.processor.Apply(turn.NarrativeText, state)
	turn.NarrativeText = cleaned
	turn.StateDeltas = deltas

	sessionState.History = sessionState.History + "\n\n[당신의 행동: " + req.ActionText + "]\n" + turn.NarrativeText
	sessionState.LastAIResponse = turn.NarrativeText
	sessionState.LastChoices = turn.Choices

	ending := s.evaluateEndings(ctx, turn.NarrativeText, sessionState.History, s.worldEndings(ctx, sessionState.WorldID), state)

	s.persistTurn(ctx, sessionState, ending)

	return &TurnResponse{
		NewStorySegment: turn.NarrativeText,
		Choices:         turn.Choices,
		History:         sessionState.History,
		SessionID:       sessionState.SessionID,
		WorldID:         sessionState.WorldID,
		WorldTitle:      sessionState.WorldTitle,
		Systems:         state,
		StateDeltas:     deltas,
		Ending:          ending,
	}, nil
}

func (s *storyService) loadStory(ctx context.Context, userID uuid.UUID, req ActionRequest) (*TurnResponse, error) {
	story, err := s.stories.Load(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	worldTitle := ""
	var configs map[string]models.SystemConfig
	var state models.StateMap
	if world, werr := s.worlds.GetByID(ctx, story.WorldID); werr == nil {
		worldTitle = world.Title
		configs = world.SystemConfigs
		state = world.InitialState()
	}

	// rehydrate the live session so continue_adventure picks up where
	// the save left off
	sessionState := &models.SessionState{
		SessionID:      story.SessionID,
		UserID:         userID,
		WorldID:        story.WorldID,
		WorldTitle:     worldTitle,
		History:        story.History,
		ActiveSystems:  state,
		SystemConfigs:  configs,
		LastAIResponse: story.LastAIResponse,
		LastChoices:    story.LastChoices,
	}
	if err := s.sessions.Put(ctx, sessionState); err != nil {
		s.logger.Warn("Failed to rehydrate session", zap.String("sessionID", story.SessionID), zap.Error(err))
	}

	return &TurnResponse{
		NewStorySegment: story.LastAIResponse,
		Choices:         story.LastChoices,
		History:         story.History,
		SessionID:       story.SessionID,
		WorldID:         story.WorldID,
		WorldTitle:      worldTitle,
		Systems:         state,
	}, nil
}

// restoreSession returns the live session, falling back to the durable
// snapshot when the session store has expired it.
func (s *storyService) restoreSession(ctx context.Context, userID uuid.UUID, req ActionRequest) (*models.SessionState, error) {
	sessionState, err := s.sessions.Get(ctx, req.SessionID)
	if err == nil {
		if sessionState.UserID != userID {
			return nil, models.ErrForbidden
		}
		return sessionState, nil
	}
	if !errors.Is(err, models.ErrSessionNotFound) {
		return nil, err
	}

	story, err := s.stories.Load(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}
	world, err := s.worlds.GetByID(ctx, story.WorldID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Session rebuilt from durable snapshot",
		zap.String("sessionID", req.SessionID),
		zap.String("userID", userID.String()))
	return &models.SessionState{
		SessionID:      story.SessionID,
		UserID:         userID,
		WorldID:        world.ID,
		WorldTitle:     world.Title,
		History:        story.History,
		ActiveSystems:  world.InitialState(),
		SystemConfigs:  world.SystemConfigs,
		LastAIResponse: story.LastAIResponse,
		LastChoices:    story.LastChoices,
	}, nil
}

// generateTurn drives the bounded retry loop against the generator. It
// always returns a usable turn: generation failures on the final attempt
// degrade to placeholder text with recovery choices, and an exhausted
// retry budget pads the best attempt with fallback choices.
func (s *storyService) generateTurn(ctx context.Context, basePrompt string) *models.Turn {
	var bestNarrative, bestRaw string
	var bestChoices []models.Choice

	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		prompt := s.policy.AugmentPrompt(basePrompt, attempt)

		raw, err := s.gen.Generate(ctx, prompt)
		if err != nil {
			s.logger.Warn("Generation attempt failed",
				zap.Int("attempt", attempt), zap.Error(err))
			if attempt == s.policy.MaxAttempts {
				narrative := bestNarrative
				if narrative == "" {
					narrative = engine.PlaceholderNarrative
				}
				return &models.Turn{
					RawText:       bestRaw,
					NarrativeText: narrative,
					Choices:       engine.ErrorChoices(),
				}
			}
			continue
		}

		seg := s.rules.Segment(raw)
		choices := engine.NormalizeChoices(seg.ChoiceLines, s.policy.MaxChoices)

		if seg.Narrative != "" {
			bestNarrative = seg.Narrative
			bestRaw = raw
		}
		if len(choices) > len(bestChoices) {
			bestChoices = choices
		}

		switch s.policy.Evaluate(attempt, choices) {
		case engine.OutcomeSuccess:
			s.logger.Debug("Choices extracted",
				zap.Int("attempt", attempt), zap.Int("count", len(choices)))
			return &models.Turn{RawText: raw, NarrativeText: seg.Narrative, Choices: choices}
		case engine.OutcomeRetry:
			s.logger.Warn("Not enough choices, retrying",
				zap.Int("attempt", attempt), zap.Int("count", len(choices)))
		case engine.OutcomeExhausted:
			s.logger.Warn("Retry budget exhausted, using fallback choices",
				zap.Int("parsed", len(bestChoices)))
		}
	}

	return &models.Turn{
		RawText:       bestRaw,
		NarrativeText: bestNarrative,
		Choices:       engine.FallbackChoices(bestChoices),
	}
}

// evaluateEndings resolves at most one triggered ending per turn.
// System conditions are checked deterministically against the state map
// first; story and hybrid conditions then go to the semantic judge in a
// single batched call. Keyword conditions have no server-side signal and
// never auto-trigger.
func (s *storyService) evaluateEndings(ctx context.Context, narrative, history string, endings []models.EndingDefinition, state models.StateMap) *models.EndingDefinition {
	if len(endings) == 0 {
		return nil
	}
	for _, ed := range endings {
		if engine.ClassifyEnding(ed.Condition) != models.EndingClassSystem {
			continue
		}
		if ResolveSystemCondition(ed.Condition, state) {
			s.logger.Info("System ending condition met", zap.String("ending", ed.Name))
			triggered := ed
			return &triggered
		}
	}
	return s.judge.Evaluate(ctx, narrative, recentTail(history), endings)
}

// persistTurn writes the turn everywhere it belongs: the live session
// store, the durable story snapshot and the ongoing-adventure list. A
// triggered ending completes the story and removes it from the list.
// Persistence failures are logged, not fatal; the turn is already
// finalized.
func (s *storyService) persistTurn(ctx context.Context, sessionState *models.SessionState, ending *models.EndingDefinition) {
	status := "ongoing"
	if ending != nil {
		status = "completed"
	}

	if err := s.sessions.Put(ctx, sessionState); err != nil {
		s.logger.Error("Failed to store session", zap.String("sessionID", sessionState.SessionID), zap.Error(err))
	}

	if err := s.stories.Save(ctx, &repository.SavedStory{
		SessionID:      sessionState.SessionID,
		UserID:         sessionState.UserID,
		WorldID:        sessionState.WorldID,
		History:        sessionState.History,
		LastAIResponse: sessionState.LastAIResponse,
		LastChoices:    sessionState.LastChoices,
		Status:         status,
	}); err != nil {
		s.logger.Error("Failed to save story snapshot", zap.String("sessionID", sessionState.SessionID), zap.Error(err))
	}

	if ending != nil {
		if err := s.adventures.Delete(ctx, sessionState.UserID, sessionState.SessionID); err != nil && !errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("Failed to remove finished adventure", zap.String("sessionID", sessionState.SessionID), zap.Error(err))
		}
		return
	}

	if err := s.adventures.Upsert(ctx, sessionState.UserID, &models.AdventureSummary{
		SessionID:  sessionState.SessionID,
		WorldID:    sessionState.WorldID,
		WorldTitle: sessionState.WorldTitle,
		Summary:    truncateRunes(sessionState.LastAIResponse, summaryMaxChars),
	}, maxOngoingAdventures); err != nil {
		s.logger.Error("Failed to upsert adventure", zap.String("sessionID", sessionState.SessionID), zap.Error(err))
	}
}

func (s *storyService) worldEndings(ctx context.Context, worldID uuid.UUID) []models.EndingDefinition {
	world, err := s.worlds.GetByID(ctx, worldID)
	if err != nil {
		s.logger.Warn("Failed to load world endings", zap.String("worldID", worldID.String()), zap.Error(err))
		return nil
	}
	return world.Endings
}

func recentTail(history string) string {
	runes := []rune(history)
	if len(runes) <= recentHistoryKept {
		return history
	}
	return string(runes[len(runes)-recentHistoryKept:])
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
