package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// WriteThrottleStore tracks permission-write attempts per actor in Redis
// sorted sets, scored by attempt time.
type WriteThrottleStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewWriteThrottleStore constructs a store using the provided Redis client.
func NewWriteThrottleStore(client *redis.Client, keyPrefix string) *WriteThrottleStore {
	if keyPrefix == "" {
		keyPrefix = "access:throttle"
	}
	return &WriteThrottleStore{client: client, keyPrefix: keyPrefix}
}

// Allow records one attempt for the actor and reports whether the attempt
// fits inside the sliding window. When the limit is exhausted it returns the
// delay until the oldest attempt leaves the window.
func (s *WriteThrottleStore) Allow(ctx context.Context, actorID string, limit int, window time.Duration, now time.Time) (bool, time.Duration, error) {
	if limit <= 0 || window <= 0 {
		return false, 0, errors.New("limit and window must be positive")
	}

	key := fmt.Sprintf("%s:%s", s.keyPrefix, actorID)
	threshold := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", threshold).Err(); err != nil {
		return false, 0, fmt.Errorf("redis zremrangebyscore: %w", err)
	}

	count, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis zcard: %w", err)
	}

	if count >= int64(limit) {
		oldest, err := s.client.ZRangeWithScores(ctx, key, 0, 0).Result()
		if err != nil {
			return false, 0, fmt.Errorf("redis zrange: %w", err)
		}

		retryAfter := window
		if len(oldest) > 0 {
			at := time.Unix(0, int64(oldest[0].Score))
			retryAfter = at.Add(window).Sub(now)
			if retryAfter < 0 {
				retryAfter = 0
			}
		}
		return false, retryAfter, nil
	}

	member := redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()}
	if err := s.client.ZAdd(ctx, key, member).Err(); err != nil {
		return false, 0, fmt.Errorf("redis zadd: %w", err)
	}

	if err := s.client.Expire(ctx, key, window).Err(); err != nil {
		return false, 0, fmt.Errorf("redis expire: %w", err)
	}

	return true, 0, nil
}
