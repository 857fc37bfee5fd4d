package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisSessionRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionRepository(client *redis.Client) ports.SessionRepository {
	return &RedisSessionRepository{
		client: client,
		prefix: "coordinator:session:",
	}
}

func (r *RedisSessionRepository) sessionKey(id domain.SessionID) string {
	return r.prefix + string(id)
}

func (r *RedisSessionRepository) activeSessionsKey() string {
	return r.prefix + "active"
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *domain.StreamSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := r.sessionKey(session.ID)
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set session in Redis: %w", err)
	}

	// Keep the active index in sync with the lifecycle state.
	activeKey := r.activeSessionsKey()
	if session.Status.Terminal() || session.Status == domain.StatusError {
		if err := r.client.SRem(ctx, activeKey, string(session.ID)).Err(); err != nil {
			return fmt.Errorf("failed to remove session from active set: %w", err)
		}
	} else {
		if err := r.client.SAdd(ctx, activeKey, string(session.ID)).Err(); err != nil {
			return fmt.Errorf("failed to add session to active set: %w", err)
		}
	}

	return nil
}

func (r *RedisSessionRepository) GetByID(ctx context.Context, id domain.SessionID) (*domain.StreamSession, error) {
	key := r.sessionKey(id)
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var session domain.StreamSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id domain.SessionID) error {
	activeKey := r.activeSessionsKey()
	if err := r.client.SRem(ctx, activeKey, string(id)).Err(); err != nil {
		return fmt.Errorf("failed to remove session from active set: %w", err)
	}

	key := r.sessionKey(id)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}

	return nil
}

func (r *RedisSessionRepository) ListActive(ctx context.Context) ([]*domain.StreamSession, error) {
	activeKey := r.activeSessionsKey()
	sessionIDs, err := r.client.SMembers(ctx, activeKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get active sessions from Redis: %w", err)
	}

	var sessions []*domain.StreamSession
	for _, idStr := range sessionIDs {
		session, err := r.GetByID(ctx, domain.SessionID(idStr))
		if err != nil {
			// Skip sessions that no longer exist
			continue
		}
		if !session.Status.Terminal() {
			sessions = append(sessions, session)
		}
	}

	return sessions, nil
}
