package grading

import (
	"context"

	"gitlab.com/toku-assess.net/internal/domain"
)

// IGradingService grades submissions against a challenge's test cases
type IGradingService interface {
	// Grade runs every test case and aggregates the verdicts. Grading outcomes,
	// including infrastructure failures, are encoded in the result; only
	// structural problems are returned as errors.
	Grade(ctx context.Context, submission *domain.Submission, challenge *domain.Challenge) (*domain.SubmissionResult, error)
}
