// Package auth resolves the caller's identity from a bearer token.
//
// A Gate parses the Authorization header and delegates token verification to
// an IdentityProvider. Two providers exist: JWTProvider verifies HMAC-signed
// tokens locally and RemoteProvider asks the identity service's user endpoint.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

// Rejection reasons reported in error details and metrics.
const (
	ReasonMissingToken    = "missing_token"
	ReasonMalformedHeader = "malformed_header"
	ReasonInvalidToken    = "invalid_token"
	ReasonExpiredToken    = "expired_token"
	ReasonRejected        = "rejected"
)

// IdentityProvider verifies a bearer token and returns its owner.
type IdentityProvider interface {
	// Resolve returns the user the token belongs to. A token the provider
	// refuses yields an *Error; provider outages yield *domain.UpstreamError.
	Resolve(ctx context.Context, token string) (domain.UserID, error)

	// Name identifies the provider in logs.
	Name() string
}

// Error is an authentication rejection. It matches domain.ErrUnauthorized.
type Error struct {
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unauthorized (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("unauthorized (%s)", e.Reason)
}

// Unwrap exposes ErrUnauthorized and the cause.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{domain.ErrUnauthorized}
	}
	return []error{domain.ErrUnauthorized, e.Cause}
}

// Reject builds an authentication rejection.
func Reject(reason string, cause error) *Error {
	return &Error{Reason: reason, Cause: cause}
}

// ReasonOf returns the rejection reason carried by err, or "" when err is not a rejection.
func ReasonOf(err error) string {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Reason
	}
	return ""
}

// Gate authenticates inbound requests.
type Gate struct {
	provider IdentityProvider
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewGate creates a Gate. A nil metrics value disables recording.
func NewGate(provider IdentityProvider, metrics *observability.Metrics, logger zerolog.Logger) *Gate {
	return &Gate{
		provider: provider,
		metrics:  metrics,
		logger:   logger.With().Str("component", "auth").Str("provider", provider.Name()).Logger(),
	}
}

// Authenticate resolves the user behind an Authorization header value.
func (g *Gate) Authenticate(ctx context.Context, header string) (domain.UserID, error) {
	token, err := BearerToken(header)
	if err != nil {
		g.reject(err)
		return "", err
	}

	user, err := g.provider.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			g.reject(err)
			return "", err
		}
		g.logger.Error().Err(err).Msg("identity lookup failed")
		return "", err
	}

	return user, nil
}

func (g *Gate) reject(err error) {
	reason := ReasonOf(err)
	g.metrics.RecordAuthFailure(reason)
	g.logger.Debug().Str("reason", reason).Msg("request rejected")
}

// BearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", Reject(ReasonMissingToken, nil)
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", Reject(ReasonMalformedHeader, nil)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", Reject(ReasonMissingToken, nil)
	}
	return token, nil
}
