package dispatch

import (
	"context"

	"gitlab.com/toku-assess.net/internal/domain"
)

// IDispatcher runs programs on the remote sandbox
type IDispatcher interface {
	// Execute runs one request. Transient sandbox failures are retried
	// internally; the returned error is one of domain.ErrUnsupportedLanguage,
	// domain.ErrTimeout, domain.ErrSandboxUnavailable, domain.ErrSandboxRejected
	// or a context error.
	Execute(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionResult, error)

	// SupportedLanguages lists the platform language identifiers that have a runtime
	SupportedLanguages() []string
}
