package myMiddleware

import (
	"context"
	"net/http"
	"strings"

	"fonnect/internal/respond"
)

type contextKey string

const (
	UserKey     contextKey = "user_id"
	UsernameKey contextKey = "username"
)

// TokenValidator is what the middleware needs from the user service.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, string, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(v TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

// Handle rejects requests without a valid token. The token is read from the
// Authorization header, falling back to the ?token= query parameter since
// browsers cannot set headers on a websocket handshake.
func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			respond.JSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing authentication token"})
			return
		}

		userID, username, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			respond.JSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, userID)
		ctx = context.WithValue(ctx, UsernameKey, username)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identity returns the verified user id and username stored by Handle.
func Identity(ctx context.Context) (string, string, bool) {
	userID, ok := ctx.Value(UserKey).(string)
	username, ok2 := ctx.Value(UsernameKey).(string)
	return userID, username, ok && ok2 && username != ""
}
