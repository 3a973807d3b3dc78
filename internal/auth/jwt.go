package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/helixir/research-report-service/internal/domain"
)

// JWTConfig configures local token verification.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// JWTProvider verifies HMAC-signed tokens and uses the sub claim as the user.
type JWTProvider struct {
	secret []byte
	parser *jwt.Parser
}

var _ IdentityProvider = (*JWTProvider)(nil)

// NewJWTProvider creates a JWTProvider. The secret must be non-empty.
func NewJWTProvider(cfg JWTConfig) (*JWTProvider, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTProvider{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
	}, nil
}

// Resolve verifies the token signature and registered claims.
func (p *JWTProvider) Resolve(_ context.Context, token string) (domain.UserID, error) {
	var claims jwt.RegisteredClaims
	_, err := p.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", Reject(ReasonExpiredToken, err)
		}
		return "", Reject(ReasonInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", Reject(ReasonInvalidToken, errors.New("token has no subject"))
	}
	return domain.UserID(claims.Subject), nil
}

// Name returns "jwt".
func (p *JWTProvider) Name() string { return "jwt" }
