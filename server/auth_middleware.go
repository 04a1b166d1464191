package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated *users.User
	ContextKeyUser ContextKey = "user"
	// ContextKeyToken stores the raw bearer token of the request
	ContextKeyToken ContextKey = "token"
)

// RequireAuth validates the Bearer session token once and puts its owner and
// the raw token into the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeServiceError(w, r, apperrors.ErrUnauthenticated)
				return
			}

			user, err := s.sessions.ValidateToken(r.Context(), token)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyToken, token)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func userFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*users.User)
	return user, ok && user != nil
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ContextKeyToken).(string)
	return token
}
