package primary

import (
	"context"
	"time"

	"gitlab.com/toku-assess.net/internal/domain"
)

type JWTService interface {
	// VerifyToken validates an HMAC signed token and returns its principal.
	VerifyToken(ctx context.Context, token string) (domain.Principal, error)
	// GenerateToken signs a token for the principal, used by tooling and tests.
	GenerateToken(ctx context.Context, principal domain.Principal, ttl time.Duration) (string, error)
}
