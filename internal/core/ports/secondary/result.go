package secondary

import (
	"context"

	"gitlab.com/toku-assess.net/internal/domain"
)

// ResultRepository defines the interface for storing and retrieving submission results
type ResultRepository interface {
	// SaveResult saves a graded submission and its case verdicts
	SaveResult(ctx context.Context, result *domain.SubmissionResult) error

	// GetResult retrieves a result by submission ID, nil when absent
	GetResult(ctx context.Context, submissionID string) (*domain.SubmissionResult, error)
}

// VerdictStore keeps per-case verdicts of a submission so a retried grading
// run does not dispatch cases again.
type VerdictStore interface {
	// GetCaseVerdicts returns stored verdicts keyed by test case ID
	GetCaseVerdicts(ctx context.Context, submissionID string) (map[string]domain.CaseVerdict, error)

	// SaveCaseVerdict stores one verdict of a submission
	SaveCaseVerdict(ctx context.Context, submissionID string, verdict domain.CaseVerdict) error
}
