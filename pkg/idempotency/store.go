// Package idempotency is a redis-backed seen-store for inbound events. The
// first delivery of a key claims it with SetNX; every later delivery within
// the TTL reports seen.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(subject, eventID string) string {
	return fmt.Sprintf("idem:%s:%s", subject, eventID)
}

func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
