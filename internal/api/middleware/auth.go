package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gatherpoint/server/internal/api/problem"
	"github.com/gatherpoint/server/internal/auth"
)

type contextKeyAuth string

const accountIDKey contextKeyAuth = "accountID"

// BearerAuth validates tokens from the Authorization header and puts
// the authenticated account ID on the request context. Expired and
// tampered tokens get the same response.
func BearerAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, env)
				return
			}

			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Missing authorization header", problem.ErrUnauthorized, env)
				return
			}

			token, err := auth.TokenFromHeader(authHeader)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid authorization format", problem.ErrUnauthorized, env)
				return
			}

			accountID, err := manager.Verify(token)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid or expired token", problem.ErrUnauthorized, env)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccountID(r.Context(), accountID)))
		})
	}
}

func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AccountID returns the authenticated account ID, or "" when the
// request did not pass through BearerAuth.
func AccountID(r *http.Request) string {
	if r == nil {
		return ""
	}
	if id, ok := r.Context().Value(accountIDKey).(string); ok {
		return id
	}
	return ""
}
