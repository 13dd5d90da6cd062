package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aulanet/internal/core/ports"
)

// CounterStore keeps the hot video counters in Redis so concurrent
// views and likes across instances stay exact.
type CounterStore struct {
	client *redis.Client
}

func NewCounterStore(client *redis.Client) *CounterStore {
	return &CounterStore{client: client}
}

// Connect dials Redis and verifies the connection before handing the
// client over.
func Connect(ctx context.Context, address, password string, db, poolSize int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func counterKey(videoID int64, kind ports.CounterKind) string {
	return fmt.Sprintf("video:%d:%s", videoID, kind)
}

func (s *CounterStore) Increment(ctx context.Context, kind ports.CounterKind, videoID int64) (int64, int64, error) {
	if err := s.client.Incr(ctx, counterKey(videoID, kind)).Err(); err != nil {
		return 0, 0, fmt.Errorf("incr counter: %w", err)
	}
	vals, err := s.client.MGet(ctx,
		counterKey(videoID, ports.CounterViews),
		counterKey(videoID, ports.CounterLikes)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read counters: %w", err)
	}
	return parseCounter(vals[0]), parseCounter(vals[1]), nil
}

func (s *CounterStore) Seed(ctx context.Context, videoID int64, views, likes int64) error {
	pipe := s.client.Pipeline()
	pipe.SetNX(ctx, counterKey(videoID, ports.CounterViews), views, 0)
	pipe.SetNX(ctx, counterKey(videoID, ports.CounterLikes), likes, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("seed counters: %w", err)
	}
	return nil
}

func parseCounter(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	var n int64
	fmt.Sscanf(s, "%d", &n)
	return n
}
