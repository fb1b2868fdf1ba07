package secondary

import "context"

type SubmissionLocker interface {
	// Acquire takes the grading lock of a submission. It returns
	// domain.ErrGradingInProgress when another grading run holds it.
	Acquire(ctx context.Context, submissionID string) (release func(), err error)
}
