package httpserver

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/auth"
	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

// correlationIDMiddleware ensures every request has a correlation ID and
// carries the chi request ID into the observability context.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())

		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = requestID
		}
		if correlationID == "" {
			buf := make([]byte, 8)
			if _, err := rand.Read(buf); err != nil {
				// Fallback to timestamp-based ID if crypto/rand fails.
				correlationID = fmt.Sprintf("%x", time.Now().UnixNano())
			} else {
				correlationID = fmt.Sprintf("%x", buf)
			}
		}

		w.Header().Set("X-Correlation-ID", correlationID)
		ctx := observability.WithRequestContextFull(r.Context(), observability.RequestContext{
			RequestID:     requestID,
			CorrelationID: correlationID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request after it completes.
func requestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			// The user ID is added to the context downstream, so only the
			// request-level fields are available here.
			logger := observability.LoggerFromContext(r.Context(), base)
			event := logger.Info()
			if status >= http.StatusInternalServerError {
				event = logger.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}

// jsonContentTypeMiddleware sets Content-Type: application/json for all responses.
func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requireUser authenticates the bearer token and stores the resolved user in
// the request context. Rejected credentials get 401 before any handler runs.
func requireUser(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authn.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
					writeErrorDetails(w, http.StatusUnauthorized, "unauthorized", auth.ReasonOf(err))
					return
				}
				writeError(w, http.StatusInternalServerError, "Failed to verify credentials")
				return
			}

			ctx := auth.WithUser(r.Context(), user)
			ctx = observability.WithUserID(ctx, user.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userFromRequest returns the user stored by requireUser.
func userFromRequest(r *http.Request) domain.UserID {
	user, _ := auth.UserFromContext(r.Context())
	return user
}
