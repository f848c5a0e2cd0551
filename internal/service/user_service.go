package service

import (
	"context"
	"errors"
	"fmt"

	"bloglist-server/internal/domain"
	"bloglist-server/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	blogRepo repository.BlogRepository
}

func NewUserService(userRepo repository.UserRepository, blogRepo repository.BlogRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		blogRepo: blogRepo,
	}
}

// List returns every user with their blogs, reading the blog collection once.
func (s *UserService) List(ctx context.Context) ([]*domain.UserView, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	blogs, err := s.blogRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}

	byAuthor := make(map[string][]*domain.Blog)
	for _, b := range blogs {
		if b.Author != "" {
			byAuthor[b.Author] = append(byAuthor[b.Author], b)
		}
	}

	views := make([]*domain.UserView, len(users))
	for i, u := range users {
		views[i] = u.ToView(byAuthor[u.ID])
	}

	return views, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.UserView, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	blogs, err := s.blogRepo.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user blogs: %w", err)
	}

	return user.ToView(blogs), nil
}
