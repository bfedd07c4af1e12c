package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storydive/internal/models"
)

const (
	upsertAdventureQuery = `
        INSERT INTO user_ongoing_adventures
            (user_id, session_id, world_id, world_title, summary, last_played_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, NOW(), NOW())
        ON CONFLICT (user_id, session_id) DO UPDATE SET
            world_id = EXCLUDED.world_id,
            world_title = EXCLUDED.world_title,
            summary = EXCLUDED.summary,
            last_played_at = NOW(),
            updated_at = NOW()
    `
	// keeps at most $2 adventures per user, dropping the least recently
	// played ones
	evictOldAdventuresQuery = `
        DELETE FROM user_ongoing_adventures
        WHERE user_id = $1 AND session_id IN (
            SELECT session_id FROM user_ongoing_adventures
            WHERE user_id = $1
            ORDER BY last_played_at DESC
            OFFSET $2
        )
    `
	listAdventuresQuery = `
        SELECT session_id, world_id, world_title, summary, last_played_at, updated_at
        FROM user_ongoing_adventures
        WHERE user_id = $1
        ORDER BY last_played_at DESC
    `
	deleteAdventureQuery = `DELETE FROM user_ongoing_adventures WHERE user_id = $1 AND session_id = $2`
)

var _ AdventureRepository = (*pgAdventureRepository)(nil)

type pgAdventureRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgAdventureRepository creates the PostgreSQL AdventureRepository.
func NewPgAdventureRepository(db DBTX, logger *zap.Logger) AdventureRepository {
	return &pgAdventureRepository{
		db:     db,
		logger: logger.Named("PgAdventureRepo"),
	}
}

func (r *pgAdventureRepository) Upsert(ctx context.Context, userID uuid.UUID, adv *models.AdventureSummary, maxPerUser int) error {
	_, err := r.db.Exec(ctx, upsertAdventureQuery,
		userID,
		adv.SessionID,
		adv.WorldID,
		adv.WorldTitle,
		adv.Summary,
	)
	if err != nil {
		r.logger.Error("Failed to upsert adventure",
			zap.String("userID", userID.String()),
			zap.String("sessionID", adv.SessionID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert adventure: %w", err)
	}

	if maxPerUser > 0 {
		tag, err := r.db.Exec(ctx, evictOldAdventuresQuery, userID, maxPerUser)
		if err != nil {
			return fmt.Errorf("failed to evict old adventures: %w", err)
		}
		if evicted := tag.RowsAffected(); evicted > 0 {
			r.logger.Info("Evicted oldest adventures over the limit",
				zap.String("userID", userID.String()),
				zap.Int64("evicted", evicted))
		}
	}
	return nil
}

func (r *pgAdventureRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AdventureSummary, error) {
	rows, err := r.db.Query(ctx, listAdventuresQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list adventures: %w", err)
	}
	defer rows.Close()

	var adventures []models.AdventureSummary
	for rows.Next() {
		var adv models.AdventureSummary
		if err := rows.Scan(
			&adv.SessionID,
			&adv.WorldID,
			&adv.WorldTitle,
			&adv.Summary,
			&adv.LastPlayedAt,
			&adv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan adventure row: %w", err)
		}
		adventures = append(adventures, adv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("adventure rows iteration error: %w", err)
	}
	return adventures, nil
}

func (r *pgAdventureRepository) Delete(ctx context.Context, userID uuid.UUID, sessionID string) error {
	tag, err := r.db.Exec(ctx, deleteAdventureQuery, userID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete adventure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
