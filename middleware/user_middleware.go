package middleware

import (
	"context"
	"net/http"

	"github.com/spirow73/study-ai-pro/auth"
)

// ContextKey is the context key under which the session username is
// stored for downstream handlers.
type ContextKey struct{}

// RequireUser verifies the session cookie and attaches the username to
// the request context.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("auth_token")
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		username, err := auth.VerifyToken(cookie.Value)
		if err != nil {
			http.Error(w, "Invalid session", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKey{}, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
