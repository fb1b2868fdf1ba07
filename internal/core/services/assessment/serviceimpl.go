package assessment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
	"gitlab.com/toku-assess.net/internal/core/services/catalog"
	"gitlab.com/toku-assess.net/internal/core/services/dispatch"
	"gitlab.com/toku-assess.net/internal/core/services/grading"
	"gitlab.com/toku-assess.net/internal/domain"
)

var _ IAssessmentService = (*AssessmentService)(nil)

const (
	maxSourceBytes = 64 * 1024
	maxStdinBytes  = 64 * 1024
	persistTimeout = 5 * time.Second
)

type AssessmentService struct {
	catalog    catalog.ICatalogService
	grader     grading.IGradingService
	dispatcher dispatch.IDispatcher
	results    secondary.ResultRepository
	locker     secondary.SubmissionLocker
	logger     primary.Logger
}

// NewAssessmentService wires the produced API. locker may be nil when only
// one process grades submissions.
func NewAssessmentService(
	catalogSvc catalog.ICatalogService,
	grader grading.IGradingService,
	dispatcher dispatch.IDispatcher,
	results secondary.ResultRepository,
	locker secondary.SubmissionLocker,
	logger primary.Logger,
) *AssessmentService {
	return &AssessmentService{
		catalog:    catalogSvc,
		grader:     grader,
		dispatcher: dispatcher,
		results:    results,
		locker:     locker,
		logger:     logger,
	}
}

func (s *AssessmentService) ListChallenges(ctx context.Context, filter domain.ChallengeFilter) ([]*domain.Challenge, error) {
	return s.catalog.ListChallenges(ctx, filter)
}

func (s *AssessmentService) GetChallengeBySlug(ctx context.Context, slug string) (*domain.Challenge, error) {
	return s.catalog.GetChallengeBySlug(ctx, slug)
}

// GradeSubmission grades the submission under its lock and persists the result
func (s *AssessmentService) GradeSubmission(ctx context.Context, submission *domain.Submission) (*domain.SubmissionResult, error) {
	if err := validateSubmission(submission); err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, submission.ID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	if err := s.checkOwner(ctx, submission); err != nil {
		return nil, err
	}

	challenge, err := s.catalog.GetChallengeBySlug(ctx, submission.ChallengeSlug)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Grading submission",
		"submissionId", submission.ID,
		"challenge", challenge.Slug,
		"language", submission.Language,
		"learnerId", submission.LearnerID)

	result, err := s.grader.Grade(ctx, submission, challenge)
	if err != nil {
		return nil, err
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.results.SaveResult(saveCtx, result); err != nil {
		s.logger.Error("Failed to save submission result", "submissionId", submission.ID, "error", err)
		return nil, fmt.Errorf("failed to save submission result: %w", err)
	}
	return result, nil
}

// checkOwner refuses a submission id already graded for another learner,
// challenge or language.
func (s *AssessmentService) checkOwner(ctx context.Context, submission *domain.Submission) error {
	existing, err := s.results.GetResult(ctx, submission.ID)
	if err != nil {
		return fmt.Errorf("failed to load submission result: %w", err)
	}
	if existing == nil {
		return nil
	}
	if existing.LearnerID != submission.LearnerID ||
		existing.ChallengeSlug != submission.ChallengeSlug ||
		!strings.EqualFold(existing.Language, submission.Language) {
		s.logger.Warn("Submission id reused by another attempt",
			"submissionId", submission.ID,
			"learnerId", submission.LearnerID,
			"ownerId", existing.LearnerID)
		return fmt.Errorf("%w: submission id %s belongs to another attempt", domain.ErrInvalidSubmission, submission.ID)
	}
	return nil
}

func (s *AssessmentService) GetSubmissionResult(ctx context.Context, submissionID string) (*domain.SubmissionResult, error) {
	result, err := s.results.GetResult(ctx, submissionID)
	if err != nil {
		s.logger.Error("Failed to get submission result", "submissionId", submissionID, "error", err)
		return nil, fmt.Errorf("failed to get submission result: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubmissionNotFound, submissionID)
	}
	return result, nil
}

func (s *AssessmentService) RunCode(ctx context.Context, language, source, stdin string) (*domain.ExecutionResult, error) {
	if strings.TrimSpace(source) == "" || len(source) > maxSourceBytes {
		return nil, fmt.Errorf("%w: source must be between 1 and %d bytes", domain.ErrInvalidSubmission, maxSourceBytes)
	}
	if len(stdin) > maxStdinBytes {
		return nil, fmt.Errorf("%w: stdin exceeds %d bytes", domain.ErrInvalidSubmission, maxStdinBytes)
	}
	return s.dispatcher.Execute(ctx, &domain.ExecutionRequest{
		Language: language,
		Source:   source,
		Stdin:    stdin,
	})
}

func (s *AssessmentService) SupportedLanguages() []string {
	return s.dispatcher.SupportedLanguages()
}

func validateSubmission(submission *domain.Submission) error {
	switch {
	case submission == nil:
		return fmt.Errorf("%w: empty submission", domain.ErrInvalidSubmission)
	case strings.TrimSpace(submission.ID) == "":
		return fmt.Errorf("%w: submission id is required", domain.ErrInvalidSubmission)
	case strings.TrimSpace(submission.Language) == "":
		return fmt.Errorf("%w: language is required", domain.ErrInvalidSubmission)
	case strings.TrimSpace(submission.Source) == "":
		return fmt.Errorf("%w: source is required", domain.ErrInvalidSubmission)
	case len(submission.Source) > maxSourceBytes:
		return fmt.Errorf("%w: source exceeds %d bytes", domain.ErrInvalidSubmission, maxSourceBytes)
	}
	return nil
}
