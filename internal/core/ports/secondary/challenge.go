package secondary

import (
	"context"

	"gitlab.com/toku-assess.net/internal/domain"
)

type ChallengeRepository interface {
	// GetChallengeBySlug returns the challenge with its test cases, or nil when absent
	GetChallengeBySlug(ctx context.Context, slug string) (*domain.Challenge, error)

	// ListChallenges returns every published challenge without test cases
	ListChallenges(ctx context.Context) ([]*domain.Challenge, error)
}
