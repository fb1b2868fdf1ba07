// Package submissionlock serialises grading runs of one submission across instances
package submissionlock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/domain"
)

var _ secondary.SubmissionLocker = (*Locker)(nil)

const (
	lockKeyPrefix  = "submission:lock:"
	releaseTimeout = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

type Locker struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      primary.Logger
}

// NewLocker creates a lock whose keys expire after ttl if never released
func NewLocker(redisClient *redis.Client, ttl time.Duration, logger primary.Logger) *Locker {
	return &Locker{
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

func (l *Locker) Acquire(ctx context.Context, submissionID string) (func(), error) {
	key := lockKeyPrefix + submissionID
	token := uuid.NewString()

	ok, err := l.redisClient.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.logger.Error("Failed to acquire submission lock", "submission_id", submissionID, "error", err)
		return nil, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrGradingInProgress
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.redisClient, []string{key}, token).Err(); err != nil {
			l.logger.Warn("Failed to release submission lock", "submission_id", submissionID, "error", err)
		}
	}
	return release, nil
}
