package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storydive/internal/models"
)

func newWorldService() (WorldService, *fakeWorldRepo) {
	repo := newFakeWorldRepo()
	return NewWorldService(repo, zap.NewNop()), repo
}

func validWorldInput() WorldInput {
	return WorldInput{
		Title:   "사이버펑크 서울",
		Setting: "2077년, 네온으로 뒤덮인 서울의 뒷골목.",
		Systems: []string{"체력", "크레딧"},
		SystemConfigs: map[string]models.SystemConfig{
			"체력":  {InitialValue: 100},
			"크레딧": {InitialValue: 500},
		},
	}
}

func TestWorldService_Create(t *testing.T) {
	svc, repo := newWorldService()
	userID := uuid.New()

	world, err := svc.Create(context.Background(), userID, validWorldInput())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, world.ID)
	assert.Equal(t, userID, world.UserID)
	assert.Contains(t, repo.worlds, world.ID)
}

func TestWorldService_CreateValidation(t *testing.T) {
	svc, _ := newWorldService()
	userID := uuid.New()

	cases := []struct {
		name   string
		mutate func(*WorldInput)
	}{
		{"empty title", func(in *WorldInput) { in.Title = "   " }},
		{"empty setting", func(in *WorldInput) { in.Setting = "" }},
		{"duplicate system", func(in *WorldInput) { in.Systems = []string{"체력", "체력"} }},
		{"blank system name", func(in *WorldInput) { in.Systems = []string{" "} }},
		{"config for undeclared system", func(in *WorldInput) {
			in.SystemConfigs["마나"] = models.SystemConfig{InitialValue: 10}
		}},
		{"ending without condition", func(in *WorldInput) {
			in.Endings = []models.EndingDefinition{{Name: "끝", Condition: " "}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validWorldInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), userID, input)
			assert.ErrorIs(t, err, models.ErrValidationFailed)
		})
	}
}

func TestWorldService_GetHidesPrivateWorlds(t *testing.T) {
	svc, _ := newWorldService()
	owner := uuid.New()

	world, err := svc.Create(context.Background(), owner, validWorldInput())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, world.ID)
	require.NoError(t, err)
	assert.Equal(t, world.ID, got.ID)

	_, err = svc.Get(context.Background(), uuid.New(), world.ID)
	assert.ErrorIs(t, err, models.ErrWorldNotFound)
}

func TestWorldService_GetPublicWorldVisibleToAnyone(t *testing.T) {
	svc, _ := newWorldService()
	input := validWorldInput()
	input.IsPublic = true

	world, err := svc.Create(context.Background(), uuid.New(), input)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), uuid.New(), world.ID)
	require.NoError(t, err)
	assert.Equal(t, world.Title, got.Title)
}

func TestWorldService_UpdateOwnershipCheck(t *testing.T) {
	svc, _ := newWorldService()
	owner := uuid.New()

	world, err := svc.Create(context.Background(), owner, validWorldInput())
	require.NoError(t, err)

	input := validWorldInput()
	input.Title = "개정판"
	_, err = svc.Update(context.Background(), uuid.New(), world.ID, input)
	assert.ErrorIs(t, err, models.ErrForbidden)

	updated, err := svc.Update(context.Background(), owner, world.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "개정판", updated.Title)
}

func TestWorldService_Delete(t *testing.T) {
	svc, repo := newWorldService()
	owner := uuid.New()

	world, err := svc.Create(context.Background(), owner, validWorldInput())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), uuid.New(), world.ID)
	assert.ErrorIs(t, err, models.ErrWorldNotFound)

	require.NoError(t, svc.Delete(context.Background(), owner, world.ID))
	assert.NotContains(t, repo.worlds, world.ID)
}

func TestWorldService_ListPublicClampsLimit(t *testing.T) {
	svc, _ := newWorldService()

	input := validWorldInput()
	input.IsPublic = true
	_, err := svc.Create(context.Background(), uuid.New(), input)
	require.NoError(t, err)

	worlds, err := svc.ListPublic(context.Background(), -5, -1)
	require.NoError(t, err)
	assert.Len(t, worlds, 1)
}

func TestAdventureService_Delete(t *testing.T) {
	userID := uuid.New()
	world := testWorld(userID)
	env := newTestEnv(&scriptedGenerator{responses: []string{goodResponse}}, world)
	advSvc := NewAdventureService(env.adventures, env.stories, env.sessions, zap.NewNop())

	ctx := context.Background()
	_, err := env.svc.HandleAction(ctx, userID, ActionRequest{
		ActionType: ActionStartNewAdventure,
		SessionID:  "sess-del",
		WorldID:    world.ID,
	})
	require.NoError(t, err)

	require.NoError(t, advSvc.Delete(ctx, userID, "sess-del"))

	advs, _ := advSvc.List(ctx, userID)
	assert.Empty(t, advs)
	_, err = env.stories.Load(ctx, userID, "sess-del")
	assert.ErrorIs(t, err, models.ErrStoryNotFound)
	_, err = env.sessions.Get(ctx, "sess-del")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	assert.ErrorIs(t, advSvc.Delete(ctx, userID, "sess-del"), models.ErrNotFound)
}
