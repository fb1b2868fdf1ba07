package catalog

import (
	"context"

	"gitlab.com/toku-assess.net/internal/domain"
)

// ICatalogService resolves catalog queries
type ICatalogService interface {
	// ListChallenges returns the challenges matching the filter ordered by slug
	ListChallenges(ctx context.Context, filter domain.ChallengeFilter) ([]*domain.Challenge, error)

	// GetChallengeBySlug returns the challenge with its test cases or domain.ErrChallengeNotFound
	GetChallengeBySlug(ctx context.Context, challengeSlug string) (*domain.Challenge, error)
}
