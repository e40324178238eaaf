package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"housing/internal/identity"
	"housing/pkg/logger"
)

const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*identity.Identity, error)
}

// AccessToken reads the caller's token from `Authorization: Bearer` or the session cookie.
func AccessToken(r *http.Request) string {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// Authenticate resolves the caller once per request and stores it in the context.
// A missing or invalid token leaves the request unauthenticated; the route decides what that means.
func Authenticate(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.Resolve(r.Context(), AccessToken(r))
			if err != nil && !errors.Is(err, identity.ErrInvalidToken) {
				logger.FromContext(r.Context()).Error("resolve identity", zap.Error(err))
				WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve identity")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin is the single admin guard for admin pages and every mutating route.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := identity.Admit(IdentityFromContext(r.Context()))
		if !d.Admitted() {
			if d.Reason == identity.DenyUnauthenticated {
				WriteError(w, d.HTTPStatus(), "UNAUTHORIZED", "sign in required")
			} else {
				WriteError(w, d.HTTPStatus(), "FORBIDDEN", "admin role required")
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger attaches a request-scoped zap logger and logs one line per request.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			l := base.With(zap.String("request_id", requestID))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			l.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
			)
		})
	}
}
