package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/domain"
)

var _ ICatalogService = (*CatalogService)(nil)

type CatalogService struct {
	challengeRepo secondary.ChallengeRepository
	logger        primary.Logger
}

func NewCatalogService(challengeRepo secondary.ChallengeRepository, logger primary.Logger) *CatalogService {
	return &CatalogService{
		challengeRepo: challengeRepo,
		logger:        logger,
	}
}

func (s *CatalogService) ListChallenges(ctx context.Context, filter domain.ChallengeFilter) ([]*domain.Challenge, error) {
	challenges, err := s.challengeRepo.ListChallenges(ctx)
	if err != nil {
		s.logger.Error("Failed to list challenges", "error", err)
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	matched := Apply(challenges, filter)
	s.logger.Debug("Filtered catalog", "total", len(challenges), "matched", len(matched))
	return matched, nil
}

func (s *CatalogService) GetChallengeBySlug(ctx context.Context, challengeSlug string) (*domain.Challenge, error) {
	challengeSlug = strings.TrimSpace(challengeSlug)
	if !slug.IsSlug(challengeSlug) {
		return nil, fmt.Errorf("%w: %q", domain.ErrChallengeNotFound, challengeSlug)
	}

	challenge, err := s.challengeRepo.GetChallengeBySlug(ctx, challengeSlug)
	if err != nil {
		s.logger.Error("Failed to get challenge", "slug", challengeSlug, "error", err)
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrChallengeNotFound, challengeSlug)
	}
	return challenge, nil
}
