package middleware

import (
	"context"
	"net/http"

	"github.com/go-chat-api/internal/application/auth"
	"github.com/go-chat-api/internal/domain"
)

type contextKey string

const userKey contextKey = "current_user"

// HeaderSessionToken carries the opaque session token on every
// authenticated request.
const HeaderSessionToken = "X-Session-Token"

// SessionAuth returns middleware that resolves the session token to its user
// and injects the user into the request context. A missing token and a bad
// token produce distinct messages so clients can tell them apart.
func SessionAuth(svc auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderSessionToken)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "No session token provided")
				return
			}
			u, err := svc.ValidateToken(r.Context(), token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}
