package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"storydive/internal/models"
)

const (
	worldFields = `id, user_id, title, setting, genre, tags, is_public, cover_image_url, starting_point, systems, system_configs, endings, created_at, updated_at`

	insertWorldQuery = `
        INSERT INTO worlds
            (id, user_id, title, setting, genre, tags, is_public, cover_image_url, starting_point, systems, system_configs, endings, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `
	getWorldByIDQuery = `
        SELECT ` + worldFields + `
        FROM worlds
        WHERE id = $1
    `
	listPublicWorldsQuery = `
        SELECT ` + worldFields + `
        FROM worlds
        WHERE is_public = TRUE
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `
	listWorldsByUserQuery = `
        SELECT ` + worldFields + `
        FROM worlds
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	updateWorldQuery = `
        UPDATE worlds SET
            title = $3,
            setting = $4,
            genre = $5,
            tags = $6,
            is_public = $7,
            cover_image_url = $8,
            starting_point = $9,
            systems = $10,
            system_configs = $11,
            endings = $12,
            updated_at = $13
        WHERE id = $1 AND user_id = $2
    `
	deleteWorldQuery = `DELETE FROM worlds WHERE id = $1 AND user_id = $2`
)

var _ WorldRepository = (*pgWorldRepository)(nil)

type pgWorldRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgWorldRepository creates the PostgreSQL WorldRepository.
func NewPgWorldRepository(db DBTX, logger *zap.Logger) WorldRepository {
	return &pgWorldRepository{
		db:     db,
		logger: logger.Named("PgWorldRepo"),
	}
}

func (r *pgWorldRepository) Create(ctx context.Context, world *models.World) error {
	if world.ID == uuid.Nil {
		world.ID = uuid.New()
	}
	now := time.Now().UTC()
	world.CreatedAt = now
	world.UpdatedAt = now

	systemsJSON, configsJSON, endingsJSON, err := marshalWorldJSON(world)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, insertWorldQuery,
		world.ID,
		world.UserID,
		world.Title,
		world.Setting,
		world.Genre,
		world.Tags,
		world.IsPublic,
		world.CoverImageURL,
		world.StartingPoint,
		systemsJSON,
		configsJSON,
		endingsJSON,
		world.CreatedAt,
		world.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create world", zap.String("title", world.Title), zap.Error(err))
		return fmt.Errorf("failed to create world: %w", err)
	}
	r.logger.Info("World created",
		zap.String("worldID", world.ID.String()),
		zap.String("userID", world.UserID.String()))
	return nil
}

func (r *pgWorldRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.World, error) {
	world, err := scanWorld(r.db.QueryRow(ctx, getWorldByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrWorldNotFound
		}
		r.logger.Error("Failed to get world", zap.String("worldID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get world: %w", err)
	}
	return world, nil
}

func (r *pgWorldRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.World, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, listPublicWorldsQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list public worlds: %w", err)
	}
	defer rows.Close()
	return collectWorlds(rows)
}

func (r *pgWorldRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.World, error) {
	rows, err := r.db.Query(ctx, listWorldsByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user worlds: %w", err)
	}
	defer rows.Close()
	return collectWorlds(rows)
}

func (r *pgWorldRepository) Update(ctx context.Context, world *models.World) error {
	world.UpdatedAt = time.Now().UTC()

	systemsJSON, configsJSON, endingsJSON, err := marshalWorldJSON(world)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, updateWorldQuery,
		world.ID,
		world.UserID,
		world.Title,
		world.Setting,
		world.Genre,
		world.Tags,
		world.IsPublic,
		world.CoverImageURL,
		world.StartingPoint,
		systemsJSON,
		configsJSON,
		endingsJSON,
		world.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update world", zap.String("worldID", world.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update world: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrWorldNotFound
	}
	return nil
}

func (r *pgWorldRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteWorldQuery, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete world: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrWorldNotFound
	}
	r.logger.Info("World deleted", zap.String("worldID", id.String()))
	return nil
}

func marshalWorldJSON(world *models.World) ([]byte, []byte, []byte, error) {
	systemsJSON, err := json.Marshal(world.Systems)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal systems: %w", err)
	}
	configsJSON, err := json.Marshal(world.SystemConfigs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal system configs: %w", err)
	}
	endingsJSON, err := json.Marshal(world.Endings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal endings: %w", err)
	}
	return systemsJSON, configsJSON, endingsJSON, nil
}

func scanWorld(row pgx.Row) (*models.World, error) {
	var world models.World
	var systemsJSON, configsJSON, endingsJSON []byte
	err := row.Scan(
		&world.ID,
		&world.UserID,
		&world.Title,
		&world.Setting,
		&world.Genre,
		&world.Tags,
		&world.IsPublic,
		&world.CoverImageURL,
		&world.StartingPoint,
		&systemsJSON,
		&configsJSON,
		&endingsJSON,
		&world.CreatedAt,
		&world.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalInto(systemsJSON, &world.Systems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal systems: %w", err)
	}
	if err := unmarshalInto(configsJSON, &world.SystemConfigs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal system configs: %w", err)
	}
	if err := unmarshalInto(endingsJSON, &world.Endings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal endings: %w", err)
	}
	return &world, nil
}

func unmarshalInto(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func collectWorlds(rows pgx.Rows) ([]models.World, error) {
	var worlds []models.World
	for rows.Next() {
		world, err := scanWorld(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan world row: %w", err)
		}
		worlds = append(worlds, *world)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("world rows iteration error: %w", err)
	}
	return worlds, nil
}
