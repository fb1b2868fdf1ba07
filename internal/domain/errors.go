package domain

import "errors"

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrTimeout             = errors.New("execution timed out")
	ErrSandboxUnavailable  = errors.New("sandbox unavailable")

	// ErrSandboxTransient marks a sandbox failure worth retrying.
	ErrSandboxTransient = errors.New("transient sandbox failure")
	// ErrSandboxRejected marks a request the sandbox refused as malformed.
	ErrSandboxRejected = errors.New("sandbox rejected request")

	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidChallenge   = errors.New("invalid challenge")
	ErrInvalidSubmission  = errors.New("invalid submission")
	ErrGradingInProgress  = errors.New("submission is already being graded")
)
