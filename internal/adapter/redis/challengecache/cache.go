// Package challengecache is a read-through Redis cache in front of a challenge repository
package challengecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/domain"
)

var _ secondary.ChallengeRepository = (*ChallengeCache)(nil)

const (
	challengeKeyPrefix = "challenge:"
	challengeListKey   = "challenges:list"
)

// ChallengeCache wraps a ChallengeRepository. Misses and Redis failures go
// to the wrapped repository, absent challenges are not cached.
type ChallengeCache struct {
	redisClient *redis.Client
	next        secondary.ChallengeRepository
	ttl         time.Duration
	logger      primary.Logger
}

func NewChallengeCache(redisClient *redis.Client, next secondary.ChallengeRepository, ttl time.Duration, logger primary.Logger) *ChallengeCache {
	return &ChallengeCache{
		redisClient: redisClient,
		next:        next,
		ttl:         ttl,
		logger:      logger,
	}
}

func (c *ChallengeCache) GetChallengeBySlug(ctx context.Context, slug string) (*domain.Challenge, error) {
	key := challengeKeyPrefix + slug

	var cached domain.Challenge
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	challenge, err := c.next.GetChallengeBySlug(ctx, slug)
	if err != nil || challenge == nil {
		return challenge, err
	}
	c.store(ctx, key, challenge)
	return challenge, nil
}

func (c *ChallengeCache) ListChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	var cached []*domain.Challenge
	if c.load(ctx, challengeListKey, &cached) {
		return cached, nil
	}

	challenges, err := c.next.ListChallenges(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, challengeListKey, challenges)
	return challenges, nil
}

// Invalidate drops the cached challenge and the cached list
func (c *ChallengeCache) Invalidate(ctx context.Context, slug string) error {
	if err := c.redisClient.Del(ctx, challengeKeyPrefix+slug, challengeListKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate challenge cache: %w", err)
	}
	return nil
}

func (c *ChallengeCache) load(ctx context.Context, key string, dst interface{}) bool {
	raw, err := c.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Challenge cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("Dropping undecodable challenge cache entry", "key", key, "error", err)
		return false
	}
	return true
}

func (c *ChallengeCache) store(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redisClient.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Challenge cache write failed", "key", key, "error", err)
	}
}
