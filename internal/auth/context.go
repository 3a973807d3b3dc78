package auth

import (
	"context"

	"github.com/helixir/research-report-service/internal/domain"
)

type userKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user domain.UserID) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (domain.UserID, bool) {
	user, ok := ctx.Value(userKey{}).(domain.UserID)
	if !ok || user.IsZero() {
		return "", false
	}
	return user, true
}
