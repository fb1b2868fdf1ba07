package assessment

import (
	"context"

	"gitlab.com/toku-assess.net/internal/domain"
)

// IAssessmentService is the API exposed to route handlers
type IAssessmentService interface {
	// ListChallenges returns catalog entries matching the filter
	ListChallenges(ctx context.Context, filter domain.ChallengeFilter) ([]*domain.Challenge, error)

	// GetChallengeBySlug returns a challenge or domain.ErrChallengeNotFound
	GetChallengeBySlug(ctx context.Context, slug string) (*domain.Challenge, error)

	// GradeSubmission grades a submission and stores its result
	GradeSubmission(ctx context.Context, submission *domain.Submission) (*domain.SubmissionResult, error)

	// GetSubmissionResult returns a stored result or domain.ErrSubmissionNotFound
	GetSubmissionResult(ctx context.Context, submissionID string) (*domain.SubmissionResult, error)

	// RunCode executes source once against custom stdin without grading
	RunCode(ctx context.Context, language, source, stdin string) (*domain.ExecutionResult, error)

	SupportedLanguages() []string
}
