package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloglist-server/internal/domain"
	"bloglist-server/internal/repository"
	"bloglist-server/pkg/hash"
	"bloglist-server/pkg/jwt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AuthService struct {
	userRepo      repository.UserRepository
	validate      *validator.Validate
	jwtSecret     string
	jwtExpiration time.Duration
	bcryptCost    int
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExp time.Duration, bcryptCost int) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		validate:      newValidator(),
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExp,
		bcryptCost:    bcryptCost,
	}
}

// Register validates the request before any hashing work is done, then
// stores the user. Username uniqueness is left to the repository.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserView, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	passwordHash, err := hash.Hash(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user.ToView(nil), nil
}

// Login never tells the caller which of username or password was wrong.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := hash.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, user.Username, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &domain.LoginResponse{
		Token:    token,
		Username: user.Username,
		Name:     user.Name,
	}, nil
}

// Authenticate validates a bearer token and resolves it to the stored user.
// Errors wrap jwt.ErrTokenExpired or jwt.ErrInvalidToken; a token whose user
// no longer exists counts as invalid.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := jwt.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", jwt.ErrInvalidToken)
		}
		return nil, fmt.Errorf("failed to resolve token user: %w", err)
	}

	return user, nil
}
