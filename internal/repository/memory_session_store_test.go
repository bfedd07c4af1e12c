package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storydive/internal/models"
)

func TestMemorySessionStore_PutGet(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	state := &models.SessionState{
		SessionID:     "sess-1",
		UserID:        uuid.New(),
		WorldID:       uuid.New(),
		History:       "어느 날 모험이 시작되었다.",
		ActiveSystems: models.StateMap{"체력": 100},
		LastChoices:   []models.Choice{{ID: "choice_1", Text: "문을 연다"}},
	}
	require.NoError(t, store.Put(ctx, state))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, state.History, got.History)
	assert.Equal(t, 100.0, got.ActiveSystems["체력"])
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestMemorySessionStore_GetMissing(t *testing.T) {
	store := NewMemorySessionStore()

	_, err := store.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestMemorySessionStore_GetReturnsCopy(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &models.SessionState{
		SessionID:     "sess-2",
		ActiveSystems: models.StateMap{"체력": 50},
	}))

	got, err := store.Get(ctx, "sess-2")
	require.NoError(t, err)
	got.ActiveSystems["체력"] = -999

	again, err := store.Get(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, 50.0, again.ActiveSystems["체력"], "mutating a returned state must not affect the store")
}

func TestMemorySessionStore_Evict(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &models.SessionState{SessionID: "sess-3"}))

	require.NoError(t, store.Evict(ctx, "sess-3"))

	_, err := store.Get(ctx, "sess-3")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	assert.NoError(t, store.Evict(ctx, "sess-3"), "evicting twice is fine")
}
