package middleware

import (
	"context"
	"net/http"
	"strings"

	"facegram/internal/auth"
)

type contextKey string

const (
	// UserIDKey is the request context key holding the authenticated user's ID.
	UserIDKey contextKey = "userID"
	// ClaimsKey is the request context key holding the full token claims.
	ClaimsKey contextKey = "claims"
)

// AuthMiddleware returns a mux middleware that validates the Bearer token on
// every request and injects the user ID and claims into the request context.
func AuthMiddleware(jwtKey string, blacklist auth.TokenBlacklist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ValidateToken(r.Context(), parts[1], jwtKey, blacklist)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the authenticated user ID set by AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(UserIDKey).(uint)
	return id, ok
}

// GetClaimsFromContext extracts the token claims set by AuthMiddleware.
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}
