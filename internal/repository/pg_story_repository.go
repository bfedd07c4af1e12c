package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"storydive/internal/models"
)

const (
	storyFields = `session_id, user_id, world_id, story_history, last_ai_response, last_choices, status`

	upsertStoryQuery = `
        INSERT INTO stories
            (session_id, user_id, world_id, story_history, last_ai_response, last_choices, status, last_updated_at, last_played_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        ON CONFLICT (user_id, session_id) DO UPDATE SET
            story_history = EXCLUDED.story_history,
            last_ai_response = EXCLUDED.last_ai_response,
            last_choices = EXCLUDED.last_choices,
            status = EXCLUDED.status,
            last_updated_at = NOW(),
            last_played_at = NOW()
    `
	getStoryBySessionQuery = `
        SELECT ` + storyFields + `
        FROM stories
        WHERE user_id = $1 AND session_id = $2
    `
	getLatestStoryQuery = `
        SELECT ` + storyFields + `
        FROM stories
        WHERE user_id = $1
        ORDER BY last_updated_at DESC
        LIMIT 1
    `
	deleteStoryQuery = `DELETE FROM stories WHERE user_id = $1 AND session_id = $2`
)

var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates the PostgreSQL StoryRepository.
func NewPgStoryRepository(db DBTX, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

func (r *pgStoryRepository) Save(ctx context.Context, story *SavedStory) error {
	choicesJSON, err := json.Marshal(story.LastChoices)
	if err != nil {
		return fmt.Errorf("failed to marshal choices: %w", err)
	}
	status := story.Status
	if status == "" {
		status = "ongoing"
	}

	_, err = r.db.Exec(ctx, upsertStoryQuery,
		story.SessionID,
		story.UserID,
		story.WorldID,
		story.History,
		story.LastAIResponse,
		choicesJSON,
		status,
	)
	if err != nil {
		r.logger.Error("Failed to save story",
			zap.String("sessionID", story.SessionID),
			zap.String("userID", story.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to save story: %w", err)
	}
	r.logger.Debug("Story saved",
		zap.String("sessionID", story.SessionID),
		zap.String("userID", story.UserID.String()))
	return nil
}

func (r *pgStoryRepository) Load(ctx context.Context, userID uuid.UUID, sessionID string) (*SavedStory, error) {
	var row pgx.Row
	if sessionID != "" {
		row = r.db.QueryRow(ctx, getStoryBySessionQuery, userID, sessionID)
	} else {
		row = r.db.QueryRow(ctx, getLatestStoryQuery, userID)
	}

	var story SavedStory
	var choicesJSON []byte
	// world_id goes NULL when the referenced world is deleted
	var worldID uuid.NullUUID
	err := row.Scan(
		&story.SessionID,
		&story.UserID,
		&worldID,
		&story.History,
		&story.LastAIResponse,
		&choicesJSON,
		&story.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to load story",
			zap.String("sessionID", sessionID),
			zap.String("userID", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load story: %w", err)
	}

	if worldID.Valid {
		story.WorldID = worldID.UUID
	}
	if len(choicesJSON) > 0 {
		if err := json.Unmarshal(choicesJSON, &story.LastChoices); err != nil {
			return nil, fmt.Errorf("failed to unmarshal choices: %w", err)
		}
	}
	return &story, nil
}

func (r *pgStoryRepository) Delete(ctx context.Context, userID uuid.UUID, sessionID string) error {
	tag, err := r.db.Exec(ctx, deleteStoryQuery, userID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}
