package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storydive/internal/models"
	"storydive/internal/repository"
)

// AdventureService exposes the per-user ongoing-adventure list.
type AdventureService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.AdventureSummary, error)
	Delete(ctx context.Context, userID uuid.UUID, sessionID string) error
}

type adventureService struct {
	adventures repository.AdventureRepository
	stories    repository.StoryRepository
	sessions   repository.SessionStore
	logger     *zap.Logger
}

// NewAdventureService creates the ongoing-adventure list service.
func NewAdventureService(
	adventures repository.AdventureRepository,
	stories repository.StoryRepository,
	sessions repository.SessionStore,
	logger *zap.Logger,
) AdventureService {
	return &adventureService{
		adventures: adventures,
		stories:    stories,
		sessions:   sessions,
		logger:     logger.Named("AdventureService"),
	}
}

func (s *adventureService) List(ctx context.Context, userID uuid.UUID) ([]models.AdventureSummary, error) {
	return s.adventures.ListByUser(ctx, userID)
}

// Delete removes the adventure row plus everything hanging off the
// session: the live session state and the durable snapshot.
func (s *adventureService) Delete(ctx context.Context, userID uuid.UUID, sessionID string) error {
	if err := s.adventures.Delete(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Evict(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to evict session", zap.String("sessionID", sessionID), zap.Error(err))
	}
	if err := s.stories.Delete(ctx, userID, sessionID); err != nil && !errors.Is(err, models.ErrStoryNotFound) {
		s.logger.Warn("Failed to delete story snapshot", zap.String("sessionID", sessionID), zap.Error(err))
	}
	s.logger.Info("Adventure deleted",
		zap.String("userID", userID.String()),
		zap.String("sessionID", sessionID))
	return nil
}

var _ AdventureService = (*adventureService)(nil)
