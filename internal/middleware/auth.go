package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "user_id"

// SessionCookie is the cookie carrying the session token for browser clients
const SessionCookie = "session"

// SessionResolver turns a session token into a user ID
type SessionResolver interface {
	ValidateJWT(token string) (string, error)
}

// RequireAuth rejects requests without a valid session
func RequireAuth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := tokenFromRequest(r)
			if problem != "" {
				respondError(w, problem, http.StatusUnauthorized)
				return
			}

			userID, err := resolver.ValidateJWT(token)
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth resolves the session when one is present and otherwise lets
// the request through anonymously
func OptionalAuth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := tokenFromRequest(r)
			if token != "" {
				if userID, err := resolver.ValidateJWT(token); err == nil {
					r = r.WithContext(WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tokenFromRequest reads a Bearer token, falling back to the session cookie.
// The second result is a client-facing problem description.
func tokenFromRequest(r *http.Request) (string, string) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", "Invalid authorization header format"
		}
		return parts[1], ""
	}

	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, ""
	}

	return "", "Authorization header required"
}

// WithUserID stores the authenticated user ID in ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
