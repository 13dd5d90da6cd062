package repositories

import (
	"context"

	"go.uber.org/zap"

	"aulanet/internal/core/ports"
	"aulanet/internal/infrastructure/repositories/memory"
	"aulanet/internal/infrastructure/repositories/redis"
	"aulanet/pkg/config"
)

// NewCounterStore returns the Redis-backed counter store when Redis is
// enabled and reachable, and the in-memory store otherwise. Counter
// values survive either way because the video service flushes them to
// the repository on every bump.
func NewCounterStore(ctx context.Context, cfg config.RedisConfig, logger *zap.SugaredLogger) ports.CounterStore {
	if !cfg.Enabled {
		logger.Infow("redis disabled, using in-memory counters")
		return memory.NewCounterStore()
	}

	client, err := redis.Connect(ctx, cfg.Address, cfg.Password, cfg.DB, cfg.PoolSize)
	if err != nil {
		logger.Warnw("redis unreachable, falling back to in-memory counters", "address", cfg.Address, "error", err)
		return memory.NewCounterStore()
	}

	logger.Infow("using redis counters", "address", cfg.Address)
	return redis.NewCounterStore(client)
}
