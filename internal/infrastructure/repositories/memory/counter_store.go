package memory

import (
	"context"
	"sync"

	"aulanet/internal/core/ports"
)

type counterPair struct {
	views int64
	likes int64
}

// CounterStore is the process-local counter fallback used when Redis
// is disabled or unreachable.
type CounterStore struct {
	mu       sync.Mutex
	counters map[int64]*counterPair
}

func NewCounterStore() *CounterStore {
	return &CounterStore{counters: make(map[int64]*counterPair)}
}

func (s *CounterStore) Increment(ctx context.Context, kind ports.CounterKind, videoID int64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair, ok := s.counters[videoID]
	if !ok {
		pair = &counterPair{}
		s.counters[videoID] = pair
	}
	switch kind {
	case ports.CounterLikes:
		pair.likes++
	default:
		pair.views++
	}
	return pair.views, pair.likes, nil
}

func (s *CounterStore) Seed(ctx context.Context, videoID int64, views, likes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.counters[videoID]; ok {
		return nil
	}
	s.counters[videoID] = &counterPair{views: views, likes: likes}
	return nil
}
