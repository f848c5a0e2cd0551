package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bloglist-server/internal/domain"
	"bloglist-server/pkg/jwt"
	"bloglist-server/pkg/response"
)

type contextKey string

const UserKey contextKey = "user"

const (
	msgTokenInvalid = "token missing or invalid"
	msgTokenExpired = "token expired"
)

// Authenticator resolves a bearer token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				response.Unauthorized(w, msgTokenInvalid)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					response.Unauthorized(w, msgTokenExpired)
				case errors.Is(err, jwt.ErrInvalidToken):
					response.Unauthorized(w, msgTokenInvalid)
				default:
					logf(r, "authentication failed: %v", err)
					response.InternalError(w, "internal server error")
				}
				return
			}

			setIdentity(r, user.Username)
			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}

func GetUser(r *http.Request) *domain.User {
	user, ok := r.Context().Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

func GetUserID(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return ""
}
