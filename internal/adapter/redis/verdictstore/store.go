// Package verdictstore caches per-case verdicts of a submission in Redis hashes
package verdictstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/domain"
)

var _ secondary.VerdictStore = (*VerdictStore)(nil)

const verdictKeyPrefix = "submission:verdicts:"

// VerdictStore keeps one hash per submission, field = test case ID.
// When next is set every write goes there first and next stays the source of
// truth: reads merge the hash under next's answer, and the hash alone is only
// served while next is failing. A Redis failure is then logged and not returned.
type VerdictStore struct {
	redisClient *redis.Client
	next        secondary.VerdictStore
	ttl         time.Duration
	logger      primary.Logger
}

// NewVerdictStore creates a Redis verdict store. next may be nil.
func NewVerdictStore(redisClient *redis.Client, next secondary.VerdictStore, ttl time.Duration, logger primary.Logger) *VerdictStore {
	return &VerdictStore{
		redisClient: redisClient,
		next:        next,
		ttl:         ttl,
		logger:      logger,
	}
}

func verdictKey(submissionID string) string {
	return verdictKeyPrefix + submissionID
}

// GetCaseVerdicts reads the hash and, when next is set, completes it from next
func (s *VerdictStore) GetCaseVerdicts(ctx context.Context, submissionID string) (map[string]domain.CaseVerdict, error) {
	cached, cacheErr := s.cached(ctx, submissionID)
	if s.next == nil {
		if cacheErr != nil {
			return nil, fmt.Errorf("failed to read case verdicts: %w", cacheErr)
		}
		return cached, nil
	}
	if cacheErr != nil {
		s.logger.Warn("Verdict cache unavailable, reading through", "submission_id", submissionID, "error", cacheErr)
	}

	verdicts, err := s.next.GetCaseVerdicts(ctx, submissionID)
	if err != nil {
		if len(cached) == 0 {
			return nil, err
		}
		s.logger.Warn("Verdict store unavailable, serving cached verdicts",
			"submission_id", submissionID,
			"cached", len(cached),
			"error", err)
		return cached, nil
	}

	missing := make(map[string]domain.CaseVerdict)
	for id, v := range verdicts {
		if _, ok := cached[id]; !ok {
			missing[id] = v
		}
	}
	if len(missing) > 0 {
		s.backfill(ctx, submissionID, missing)
	}
	return verdicts, nil
}

func (s *VerdictStore) cached(ctx context.Context, submissionID string) (map[string]domain.CaseVerdict, error) {
	fields, err := s.redisClient.HGetAll(ctx, verdictKey(submissionID)).Result()
	if err != nil {
		return nil, err
	}
	return decode(fields)
}

// SaveCaseVerdict writes through to next and then into the hash
func (s *VerdictStore) SaveCaseVerdict(ctx context.Context, submissionID string, verdict domain.CaseVerdict) error {
	if s.next != nil {
		if err := s.next.SaveCaseVerdict(ctx, submissionID, verdict); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to marshal case verdict: %w", err)
	}

	key := verdictKey(submissionID)
	_, err = s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, verdict.TestCaseID, payload)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		if s.next != nil {
			s.logger.Warn("Failed to cache case verdict", "submission_id", submissionID, "error", err)
			if delErr := s.redisClient.Del(ctx, key).Err(); delErr != nil {
				s.logger.Warn("Failed to drop partial verdict cache", "submission_id", submissionID, "error", delErr)
			}
			return nil
		}
		s.logger.Error("Failed to save case verdict", "submission_id", submissionID, "error", err)
		return fmt.Errorf("failed to save case verdict: %w", err)
	}
	return nil
}

func (s *VerdictStore) backfill(ctx context.Context, submissionID string, verdicts map[string]domain.CaseVerdict) {
	values := make([]interface{}, 0, len(verdicts)*2)
	for id, v := range verdicts {
		payload, err := json.Marshal(v)
		if err != nil {
			return
		}
		values = append(values, id, payload)
	}

	key := verdictKey(submissionID)
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values...)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to backfill verdict cache", "submission_id", submissionID, "error", err)
	}
}

func decode(fields map[string]string) (map[string]domain.CaseVerdict, error) {
	verdicts := make(map[string]domain.CaseVerdict, len(fields))
	for id, raw := range fields {
		var v domain.CaseVerdict
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal case verdict %s: %w", id, err)
		}
		verdicts[id] = v
	}
	return verdicts, nil
}
