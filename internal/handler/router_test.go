package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storydive/internal/auth"
	"storydive/internal/config"
	"storydive/internal/models"
	"storydive/internal/service"
)

const testSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubStoryService struct {
	resp *service.TurnResponse
	err  error
	got  service.ActionRequest
}

func (s *stubStoryService) HandleAction(ctx context.Context, userID uuid.UUID, req service.ActionRequest) (*service.TurnResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type stubWorldService struct {
	world *models.World
	err   error
}

func (s *stubWorldService) Create(ctx context.Context, userID uuid.UUID, input service.WorldInput) (*models.World, error) {
	return s.world, s.err
}
func (s *stubWorldService) Get(ctx context.Context, userID uuid.UUID, worldID uuid.UUID) (*models.World, error) {
	return s.world, s.err
}
func (s *stubWorldService) ListPublic(ctx context.Context, limit, offset int) ([]models.World, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.World{*s.world}, nil
}
func (s *stubWorldService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.World, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.World{*s.world}, nil
}
func (s *stubWorldService) Update(ctx context.Context, userID uuid.UUID, worldID uuid.UUID, input service.WorldInput) (*models.World, error) {
	return s.world, s.err
}
func (s *stubWorldService) Delete(ctx context.Context, userID uuid.UUID, worldID uuid.UUID) error {
	return s.err
}

type stubAdventureService struct {
	list []models.AdventureSummary
	err  error
}

func (s *stubAdventureService) List(ctx context.Context, userID uuid.UUID) ([]models.AdventureSummary, error) {
	return s.list, s.err
}
func (s *stubAdventureService) Delete(ctx context.Context, userID uuid.UUID, sessionID string) error {
	return s.err
}

func newTestRouter(story service.StoryService, worlds service.WorldService, adventures service.AdventureService) *gin.Engine {
	logger := zap.NewNop()
	cfg := &config.Config{CORSOrigins: []string{"http://localhost:3000"}}
	return NewRouter(
		cfg,
		logger,
		auth.NewJWTVerifier(testSecret),
		NewStoryHandler(story, logger),
		NewWorldHandler(worlds, logger),
		NewAdventureHandler(adventures, logger),
	)
}

func bearerToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubStoryService{}, &stubWorldService{}, &stubAdventureService{})

	rec := doRequest(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestActionEndpoint(t *testing.T) {
	userID := uuid.New()
	worldID := uuid.New()
	story := &stubStoryService{resp: &service.TurnResponse{
		NewStorySegment: "동굴 입구에 도착했다.",
		Choices:         []models.Choice{{ID: "choice_1", Text: "들어간다"}, {ID: "choice_2", Text: "돌아간다"}},
		SessionID:       "sess-1",
		WorldID:         worldID,
	}}
	router := newTestRouter(story, &stubWorldService{}, &stubAdventureService{})

	rec := doRequest(router, http.MethodPost, "/api/action", bearerToken(t, userID), gin.H{
		"action_type": service.ActionStartNewAdventure,
		"session_id":  "sess-1",
		"world_key":   worldID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp service.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "동굴 입구에 도착했다.", resp.NewStorySegment)
	assert.Len(t, resp.Choices, 2)
	assert.Equal(t, service.ActionStartNewAdventure, story.got.ActionType)
	assert.Equal(t, worldID, story.got.WorldID)
}

func TestActionEndpoint_RequiresAuth(t *testing.T) {
	router := newTestRouter(&stubStoryService{}, &stubWorldService{}, &stubAdventureService{})

	rec := doRequest(router, http.MethodPost, "/api/action", "", gin.H{"action_type": "load_story"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/action", "Bearer not-a-token", gin.H{"action_type": "load_story"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestActionEndpoint_ErrorMapping(t *testing.T) {
	userID := uuid.New()
	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", models.ErrValidationFailed, http.StatusBadRequest},
		{"forbidden", models.ErrForbidden, http.StatusForbidden},
		{"world not found", models.ErrWorldNotFound, http.StatusNotFound},
		{"story not found", models.ErrStoryNotFound, http.StatusNotFound},
		{"generation failed", models.ErrGenerationFailed, http.StatusBadGateway},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubStoryService{err: tc.err}, &stubWorldService{}, &stubAdventureService{})
			rec := doRequest(router, http.MethodPost, "/api/action", bearerToken(t, userID), gin.H{
				"action_type": "load_story",
				"session_id":  "sess-x",
			})
			assert.Equal(t, tc.expected, rec.Code)
		})
	}
}

func TestWorldEndpoints(t *testing.T) {
	userID := uuid.New()
	world := &models.World{ID: uuid.New(), UserID: userID, Title: "테스트 세계관", Setting: "설정"}
	router := newTestRouter(&stubStoryService{}, &stubWorldService{world: world}, &stubAdventureService{})
	token := bearerToken(t, userID)

	rec := doRequest(router, http.MethodPost, "/api/worlds", token, gin.H{
		"title": world.Title, "setting": world.Setting,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/worlds", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/worlds/my", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/worlds/"+world.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/worlds/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/api/worlds/"+world.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdventureEndpoints(t *testing.T) {
	userID := uuid.New()
	adventures := &stubAdventureService{list: []models.AdventureSummary{
		{SessionID: "sess-1", WorldTitle: "세계관", Summary: "요약"},
	}}
	router := newTestRouter(&stubStoryService{}, &stubWorldService{}, adventures)
	token := bearerToken(t, userID)

	rec := doRequest(router, http.MethodGet, "/api/adventures/ongoing", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Adventures []models.AdventureSummary `json:"adventures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Adventures, 1)
	assert.Equal(t, "sess-1", resp.Adventures[0].SessionID)

	rec = doRequest(router, http.MethodDelete, "/api/adventures/sess-1", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
