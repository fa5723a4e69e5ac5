package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/PejmanG/chat-app/internal/auth"
	"github.com/PejmanG/chat-app/internal/config"
)

// contextKey is a private type for context values to avoid key collisions.
type contextKey string

// UserIDKey is the context key under which the authenticated user ID is stored.
const UserIDKey contextKey = "userID"

// UsernameKey is the context key under which the authenticated username is stored.
const UsernameKey contextKey = "username"

// TokenFromRequest extracts the session JWT from the request: the session
// cookie first, then the Authorization header as a fallback for non-browser
// clients. Returns the empty string when neither is present.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// AuthMiddleware validates the session JWT and stores the caller's identity
// on the request context. Requests without a valid, unrevoked token get 401.
func AuthMiddleware(next http.Handler, authCfg config.AuthConfig, blacklist auth.TokenBlacklist) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := TokenFromRequest(r, authCfg.CookieName)
		if tokenString == "" {
			writeUnauthorized(w, "missing session token")
			return
		}

		claims, err := auth.ValidateToken(r.Context(), tokenString, authCfg.JWTSecretKey, blacklist)
		if err != nil {
			writeUnauthorized(w, "invalid session token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UsernameKey, claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext returns the authenticated user ID from the context.
func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	userID, ok := ctx.Value(UserIDKey).(uint)
	return userID, ok
}

// GetUsernameFromContext returns the authenticated username from the context.
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
