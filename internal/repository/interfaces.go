package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"storydive/internal/models"
)

// DBTX abstracts the pgx querier so repositories work over both a pool
// and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// SavedStory is the durable snapshot of a session, loadable after the
// in-memory session expires.
type SavedStory struct {
	SessionID      string
	UserID         uuid.UUID
	WorldID        uuid.UUID
	History        string
	LastAIResponse string
	LastChoices    []models.Choice
	Status         string
}

// StoryRepository persists session snapshots.
type StoryRepository interface {
	// Save upserts the snapshot keyed by (user_id, session_id).
	Save(ctx context.Context, story *SavedStory) error
	// Load returns the snapshot for the session, or the most recently
	// played one when sessionID is empty. models.ErrStoryNotFound when
	// nothing matches.
	Load(ctx context.Context, userID uuid.UUID, sessionID string) (*SavedStory, error)
	Delete(ctx context.Context, userID uuid.UUID, sessionID string) error
}

// WorldRepository stores adventure world definitions.
type WorldRepository interface {
	Create(ctx context.Context, world *models.World) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.World, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.World, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.World, error)
	Update(ctx context.Context, world *models.World) error
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

// AdventureRepository tracks each user's ongoing-adventure list.
type AdventureRepository interface {
	// Upsert saves the adventure row and evicts the oldest entries when
	// the user exceeds maxPerUser.
	Upsert(ctx context.Context, userID uuid.UUID, adv *models.AdventureSummary, maxPerUser int) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AdventureSummary, error)
	Delete(ctx context.Context, userID uuid.UUID, sessionID string) error
}

// SessionStore holds live per-session game state. Lifetime and eviction
// policy are owned by the caller, not by the story loop.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.SessionState, error)
	Put(ctx context.Context, state *models.SessionState) error
	Evict(ctx context.Context, sessionID string) error
}
