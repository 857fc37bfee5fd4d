package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisDonationRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisDonationRepository(client *redis.Client) ports.DonationRepository {
	return &RedisDonationRepository{
		client: client,
		prefix: "coordinator:donation:",
	}
}

func (r *RedisDonationRepository) donationKey(id domain.DonationID) string {
	return r.prefix + string(id)
}

func (r *RedisDonationRepository) sessionIndexKey(sessionID domain.SessionID) string {
	return r.prefix + "session:" + string(sessionID)
}

func (r *RedisDonationRepository) Save(ctx context.Context, donation *domain.Donation) error {
	data, err := json.Marshal(donation)
	if err != nil {
		return fmt.Errorf("failed to marshal donation: %w", err)
	}

	key := r.donationKey(donation.ID)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, r.sessionIndexKey(donation.SessionID), string(donation.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save donation in Redis: %w", err)
	}

	return nil
}

func (r *RedisDonationRepository) GetByID(ctx context.Context, id domain.DonationID) (*domain.Donation, error) {
	key := r.donationKey(id)
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, domain.ErrDonationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donation from Redis: %w", err)
	}

	var donation domain.Donation
	if err := json.Unmarshal([]byte(data), &donation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal donation: %w", err)
	}

	return &donation, nil
}

func (r *RedisDonationRepository) ListBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.Donation, error) {
	ids, err := r.client.SMembers(ctx, r.sessionIndexKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session donations from Redis: %w", err)
	}

	donations := make([]*domain.Donation, 0, len(ids))
	for _, idStr := range ids {
		donation, err := r.GetByID(ctx, domain.DonationID(idStr))
		if err != nil {
			continue
		}
		donations = append(donations, donation)
	}

	return donations, nil
}
