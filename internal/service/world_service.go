package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storydive/internal/models"
	"storydive/internal/repository"
)

const (
	maxWorldTitleLen   = 100
	maxWorldSystems    = 10
	maxWorldEndings    = 10
	defaultWorldsLimit = 20
	maxWorldsLimit     = 100
)

// WorldInput carries the client-supplied fields for world creation and
// update.
type WorldInput struct {
	Title         string                         `json:"title"`
	Setting       string                         `json:"setting"`
	Genre         *string                        `json:"genre,omitempty"`
	Tags          []string                       `json:"tags"`
	IsPublic      bool                           `json:"is_public"`
	CoverImageURL *string                        `json:"cover_image_url,omitempty"`
	StartingPoint *string                        `json:"starting_point,omitempty"`
	Systems       []string                       `json:"systems"`
	SystemConfigs map[string]models.SystemConfig `json:"system_configs"`
	Endings       []models.EndingDefinition      `json:"endings"`
}

// WorldService manages adventure world definitions.
type WorldService interface {
	Create(ctx context.Context, userID uuid.UUID, input WorldInput) (*models.World, error)
	Get(ctx context.Context, userID uuid.UUID, worldID uuid.UUID) (*models.World, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.World, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.World, error)
	Update(ctx context.Context, userID uuid.UUID, worldID uuid.UUID, input WorldInput) (*models.World, error)
	Delete(ctx context.Context, userID uuid.UUID, worldID uuid.UUID) error
}

type worldService struct {
	worlds repository.WorldRepository
	logger *zap.Logger
}

// NewWorldService creates the world management service.
func NewWorldService(worlds repository.WorldRepository, logger *zap.Logger) WorldService {
	return &worldService{worlds: worlds, logger: logger.Named("WorldService")}
}

func validateWorldInput(input *WorldInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Setting = strings.TrimSpace(input.Setting)
	if input.Title == "" {
		return fmt.Errorf("%w: title is required", models.ErrValidationFailed)
	}
	if len([]rune(input.Title)) > maxWorldTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", models.ErrValidationFailed, maxWorldTitleLen)
	}
	if input.Setting == "" {
		return fmt.Errorf("%w: setting is required", models.ErrValidationFailed)
	}
	if len(input.Systems) > maxWorldSystems {
		return fmt.Errorf("%w: at most %d systems", models.ErrValidationFailed, maxWorldSystems)
	}
	if len(input.Endings) > maxWorldEndings {
		return fmt.Errorf("%w: at most %d endings", models.ErrValidationFailed, maxWorldEndings)
	}
	seen := make(map[string]struct{}, len(input.Systems))
	for _, name := range input.Systems {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: system names must not be empty", models.ErrValidationFailed)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate system %q", models.ErrValidationFailed, name)
		}
		seen[name] = struct{}{}
	}
	for name := range input.SystemConfigs {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("%w: config for undeclared system %q", models.ErrValidationFailed, name)
		}
	}
	for _, ed := range input.Endings {
		if strings.TrimSpace(ed.Name) == "" || strings.TrimSpace(ed.Condition) == "" {
			return fmt.Errorf("%w: endings need a name and a condition", models.ErrValidationFailed)
		}
	}
	return nil
}

func (s *worldService) Create(ctx context.Context, userID uuid.UUID, input WorldInput) (*models.World, error) {
	if err := validateWorldInput(&input); err != nil {
		return nil, err
	}
	world := &models.World{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         input.Title,
		Setting:       input.Setting,
		Genre:         input.Genre,
		Tags:          input.Tags,
		IsPublic:      input.IsPublic,
		CoverImageURL: input.CoverImageURL,
		StartingPoint: input.StartingPoint,
		Systems:       input.Systems,
		SystemConfigs: input.SystemConfigs,
		Endings:       input.Endings,
	}
	if err := s.worlds.Create(ctx, world); err != nil {
		return nil, err
	}
	s.logger.Info("World created",
		zap.String("worldID", world.ID.String()),
		zap.String("userID", userID.String()),
		zap.Bool("public", world.IsPublic))
	return world, nil
}

func (s *worldService) Get(ctx context.Context, userID uuid.UUID, worldID uuid.UUID) (*models.World, error) {
	world, err := s.worlds.GetByID(ctx, worldID)
	if err != nil {
		return nil, err
	}
	// private worlds are only visible to their owner
	if !world.IsPublic && world.UserID != userID {
		return nil, models.ErrWorldNotFound
	}
	return world, nil
}

func (s *worldService) ListPublic(ctx context.Context, limit, offset int) ([]models.World, error) {
	if limit <= 0 {
		limit = defaultWorldsLimit
	}
	if limit > maxWorldsLimit {
		limit = maxWorldsLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.worlds.ListPublic(ctx, limit, offset)
}

func (s *worldService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.World, error) {
	return s.worlds.ListByUser(ctx, userID)
}

func (s *worldService) Update(ctx context.Context, userID uuid.UUID, worldID uuid.UUID, input WorldInput) (*models.World, error) {
	if err := validateWorldInput(&input); err != nil {
		return nil, err
	}
	existing, err := s.worlds.GetByID(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, models.ErrForbidden
	}
	existing.Title = input.Title
	existing.Setting = input.Setting
	existing.Genre = input.Genre
	existing.Tags = input.Tags
	existing.IsPublic = input.IsPublic
	existing.CoverImageURL = input.CoverImageURL
	existing.StartingPoint = input.StartingPoint
	existing.Systems = input.Systems
	existing.SystemConfigs = input.SystemConfigs
	existing.Endings = input.Endings
	if err := s.worlds.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.logger.Info("World updated", zap.String("worldID", worldID.String()))
	return existing, nil
}

func (s *worldService) Delete(ctx context.Context, userID uuid.UUID, worldID uuid.UUID) error {
	if err := s.worlds.Delete(ctx, worldID, userID); err != nil {
		return err
	}
	s.logger.Info("World deleted", zap.String("worldID", worldID.String()))
	return nil
}

var _ WorldService = (*worldService)(nil)
