// Package rediscache caches the polled run status view. The status endpoint
// is hit far more often than sessions change, so reads are served from
// Redis and entries are dropped on every status transition.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-scholarmatch-be/internal/dto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const statusKeyPrefix = "run_status:"

type StatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStatusCache returns a cache over rdb. A nil client disables caching;
// every method becomes a no-op miss so callers need no nil checks.
func NewStatusCache(rdb *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{rdb: rdb, ttl: ttl}
}

func (c *StatusCache) Get(ctx context.Context, sessionId uuid.UUID) (*dto.RunStatusResponse, error) {
	if c.rdb == nil {
		return nil, nil
	}

	raw, err := c.rdb.Get(ctx, statusKeyPrefix+sessionId.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var status dto.RunStatusResponse
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		// Treat a corrupt entry as a miss; the caller refills it.
		return nil, nil
	}
	return &status, nil
}

func (c *StatusCache) Set(ctx context.Context, status *dto.RunStatusResponse) error {
	if c.rdb == nil {
		return nil
	}

	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, statusKeyPrefix+status.SessionId.String(), raw, c.ttl).Err()
}

func (c *StatusCache) Invalidate(ctx context.Context, sessionId uuid.UUID) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, statusKeyPrefix+sessionId.String()).Err()
}
