package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bloglist-server/internal/domain"
	"bloglist-server/pkg/jwt"
)

type stubAuthenticator struct {
	users map[string]*domain.User
	err   error
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: unknown", jwt.ErrInvalidToken)
}

func TestAuthMiddleware(t *testing.T) {
	user := &domain.User{ID: "user-1", Username: "test"}
	auth := &stubAuthenticator{users: map[string]*domain.User{"good": user}}

	tests := []struct {
		name       string
		header     string
		auth       *stubAuthenticator
		wantStatus int
		wantError  string
	}{
		{name: "valid token", header: "Bearer good", auth: auth, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", auth: auth, wantStatus: http.StatusOK},
		{name: "missing header", auth: auth, wantStatus: http.StatusUnauthorized, wantError: msgTokenInvalid},
		{name: "wrong scheme", header: "Basic good", auth: auth, wantStatus: http.StatusUnauthorized, wantError: msgTokenInvalid},
		{name: "no token", header: "Bearer", auth: auth, wantStatus: http.StatusUnauthorized, wantError: msgTokenInvalid},
		{name: "extra parts", header: "Bearer good extra", auth: auth, wantStatus: http.StatusUnauthorized, wantError: msgTokenInvalid},
		{name: "unknown token", header: "Bearer bad", auth: auth, wantStatus: http.StatusUnauthorized, wantError: msgTokenInvalid},
		{
			name:       "expired token",
			header:     "Bearer good",
			auth:       &stubAuthenticator{err: fmt.Errorf("%w: exp", jwt.ErrTokenExpired)},
			wantStatus: http.StatusUnauthorized,
			wantError:  msgTokenExpired,
		},
		{
			name:       "store failure",
			header:     "Bearer good",
			auth:       &stubAuthenticator{err: errors.New("connection refused")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *domain.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetUser(r)
				if GetUserID(r) != seen.ID {
					t.Error("GetUserID() disagrees with GetUser()")
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/blogs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(tt.auth)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusOK {
				if seen == nil || seen.ID != user.ID {
					t.Errorf("user in context = %+v", seen)
				}
				return
			}

			if seen != nil {
				t.Error("next handler ran for rejected request")
			}

			if tt.wantError != "" {
				var body struct {
					Error string `json:"error"`
				}
				json.NewDecoder(rec.Body).Decode(&body)
				if body.Error != tt.wantError {
					t.Errorf("error = %q, want %q", body.Error, tt.wantError)
				}
			}
		})
	}
}

func TestGetUserWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if GetUser(req) != nil || GetUserID(req) != "" {
		t.Error("expected no user on a bare request")
	}
}

func TestLoggerSeesAuthenticatedUser(t *testing.T) {
	user := &domain.User{ID: "user-1", Username: "test"}
	auth := &stubAuthenticator{users: map[string]*domain.User{"good": user}}

	var id *identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ = r.Context().Value(identityKey).(*identity)
		w.WriteHeader(http.StatusCreated)
	})

	handler := LoggerMiddleware()(AuthMiddleware(auth)(next))

	req := httptest.NewRequest(http.MethodPost, "/api/blogs", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if id == nil || id.username != "test" {
		t.Errorf("identity = %+v, want username test", id)
	}
}
