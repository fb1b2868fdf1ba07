package crypto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/toku-assess.net/internal/config"
	"gitlab.com/toku-assess.net/internal/core/ports/primary"
	"gitlab.com/toku-assess.net/internal/domain"
)

var _ primary.JWTService = (*JWTServiceImpl)(nil)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("jwt secret is not configured")
)

type claims struct {
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type JWTServiceImpl struct {
	HMACSecretKey string
	Issuer        string
}

func NewJWTService(jwtConfig *config.JwtConfig) *JWTServiceImpl {
	return &JWTServiceImpl{
		HMACSecretKey: jwtConfig.Secret,
		Issuer:        jwtConfig.Issuer,
	}
}

func (j *JWTServiceImpl) GenerateToken(ctx context.Context, principal domain.Principal, ttl time.Duration) (string, error) {
	if j.HMACSecretKey == "" {
		return "", ErrNoSecret
	}
	now := time.Now()
	c := claims{
		Username: principal.Username,
		Roles:    principal.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Subject,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString([]byte(j.HMACSecretKey))
}

// VerifyToken checks signature, expiry and issuer, and requires a subject
func (j *JWTServiceImpl) VerifyToken(ctx context.Context, token string) (domain.Principal, error) {
	if j.HMACSecretKey == "" {
		return domain.Principal{}, ErrNoSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(j.HMACSecretKey), nil
	}, opts...)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || c.Subject == "" {
		return domain.Principal{}, ErrInvalidToken
	}

	return domain.Principal{
		Subject:  c.Subject,
		Username: c.Username,
		Roles:    c.Roles,
	}, nil
}
