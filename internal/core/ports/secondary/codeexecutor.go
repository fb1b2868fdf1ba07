package secondary

import (
	"context"

	"gitlab.com/toku-assess.net/internal/domain"
)

type CodeExecutor interface {
	// Run performs exactly one remote sandbox call. Failures worth retrying
	// wrap domain.ErrSandboxTransient, malformed requests wrap
	// domain.ErrSandboxRejected and context errors are returned as is.
	Run(ctx context.Context, runtime domain.Runtime, req *domain.ExecutionRequest) (*domain.ExecutionResult, error)
}
