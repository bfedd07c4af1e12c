package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storydive/internal/models"
)

// sessionTTL bounds how long an idle session survives. Every Put
// refreshes it; durable state lives in the story repository.
const sessionTTL = 24 * time.Hour

var _ SessionStore = (*redisSessionStore)(nil)

type redisSessionStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSessionStore creates a Redis-backed SessionStore.
func NewRedisSessionStore(client *redis.Client, logger *zap.Logger) SessionStore {
	return &redisSessionStore{
		client: client,
		logger: logger.Named("RedisSessionStore"),
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (s *redisSessionStore) Get(ctx context.Context, sessionID string) (*models.SessionState, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		s.logger.Error("Failed to get session from redis",
			zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var state models.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Error("Corrupted session data in redis",
			zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("corrupted session data for %s: %w", sessionID, err)
	}
	return &state, nil
}

func (s *redisSessionStore) Put(ctx context.Context, state *models.SessionState) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(state.SessionID), data, sessionTTL).Err(); err != nil {
		s.logger.Error("Failed to put session into redis",
			zap.String("sessionID", state.SessionID), zap.Error(err))
		return fmt.Errorf("failed to put session into redis: %w", err)
	}
	s.logger.Debug("Session stored",
		zap.String("sessionID", state.SessionID),
		zap.Duration("ttl", sessionTTL))
	return nil
}

func (s *redisSessionStore) Evict(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to evict session %s: %w", sessionID, err)
	}
	return nil
}
