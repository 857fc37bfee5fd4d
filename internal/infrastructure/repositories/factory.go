package repositories

import (
	"context"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/repositories/memory"
	redisrepo "github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/repositories/redis"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis      bool
	redisClient   *redis.Client
	chatRetention int
	logger        *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis:      cfg.Redis.Enabled,
		chatRetention: cfg.Chat.HistorySize,
		logger:        logger,
	}

	// Try to connect to Redis if enabled
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// RedisClient exposes the shared client for non-repository uses such as
// leader election. Nil when running on memory repositories.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	if !f.useRedis {
		return nil
	}
	return f.redisClient
}

// CreateSessionRepository creates a session repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateSessionRepository() ports.SessionRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisSessionRepository(f.redisClient)
	}
	return memory.NewMemorySessionRepository()
}

// CreateChatRepository creates a chat repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateChatRepository() ports.ChatRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisChatRepository(f.redisClient, f.chatRetention)
	}
	return memory.NewMemoryChatRepository()
}

// CreateDonationRepository creates a donation repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateDonationRepository() ports.DonationRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisDonationRepository(f.redisClient)
	}
	return memory.NewMemoryDonationRepository()
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
