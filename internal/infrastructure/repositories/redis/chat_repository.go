package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisChatRepository struct {
	client    *redis.Client
	prefix    string
	retention int64
}

func NewRedisChatRepository(client *redis.Client, retention int) ports.ChatRepository {
	if retention <= 0 {
		retention = 500
	}
	return &RedisChatRepository{
		client:    client,
		prefix:    "coordinator:chat:",
		retention: int64(retention),
	}
}

func (r *RedisChatRepository) chatKey(sessionID domain.SessionID) string {
	return r.prefix + string(sessionID)
}

func (r *RedisChatRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	key := r.chatKey(msg.SessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -r.retention, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat message in Redis: %w", err)
	}

	return nil
}

func (r *RedisChatRepository) Recent(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.ChatMessage, error) {
	key := r.chatKey(sessionID)

	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	entries, err := r.client.LRange(ctx, key, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages from Redis: %w", err)
	}

	messages := make([]*domain.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			// Skip corrupt entries
			continue
		}
		messages = append(messages, &msg)
	}

	return messages, nil
}

func (r *RedisChatRepository) Purge(ctx context.Context, sessionID domain.SessionID) error {
	key := r.chatKey(sessionID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to purge chat messages from Redis: %w", err)
	}
	return nil
}
