package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloglist-server/internal/domain"
	"bloglist-server/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxUpdateAttempts = 5

// BlogNotifier receives committed blog changes.
type BlogNotifier interface {
	NotifyBlogEvent(event domain.BlogEvent)
}

type BlogService struct {
	blogRepo repository.BlogRepository
	userRepo repository.UserRepository
	notifier BlogNotifier
	validate *validator.Validate
}

// NewBlogService wires the blog store. notifier may be nil.
func NewBlogService(blogRepo repository.BlogRepository, userRepo repository.UserRepository, notifier BlogNotifier) *BlogService {
	return &BlogService{
		blogRepo: blogRepo,
		userRepo: userRepo,
		notifier: notifier,
		validate: newValidator(),
	}
}

func (s *BlogService) List(ctx context.Context) ([]*domain.BlogView, error) {
	blogs, err := s.blogRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}

	authors := make(map[string]*domain.User)
	views := make([]*domain.BlogView, len(blogs))
	for i, b := range blogs {
		author, err := s.cachedAuthor(ctx, authors, b.Author)
		if err != nil {
			return nil, err
		}
		views[i] = b.ToView(author)
	}

	return views, nil
}

func (s *BlogService) Get(ctx context.Context, id string) (*domain.BlogView, error) {
	blog, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.toView(ctx, blog)
}

// Create stores a blog authored by userID. Likes default to zero.
func (s *BlogService) Create(ctx context.Context, userID string, req *domain.CreateBlogRequest) (*domain.BlogView, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	now := time.Now()
	blog := &domain.Blog{
		ID:        uuid.New().String(),
		Title:     req.Title,
		URL:       req.URL,
		Author:    userID,
		Likes:     req.Likes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.blogRepo.Create(ctx, blog); err != nil {
		return nil, fmt.Errorf("failed to create blog: %w", err)
	}

	view, err := s.toView(ctx, blog)
	if err != nil {
		return nil, err
	}

	s.notify(domain.BlogCreated, blog.ID, view)
	return view, nil
}

// Update replaces the fields present in req. The author never changes. A
// write that loses a race with another change is reapplied to the fresh copy.
func (s *BlogService) Update(ctx context.Context, id string, req *domain.UpdateBlogRequest) (*domain.BlogView, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		blog, err := s.find(ctx, id)
		if err != nil {
			return nil, err
		}

		if req.Title != nil {
			blog.Title = *req.Title
		}
		if req.URL != nil {
			blog.URL = *req.URL
		}
		if req.Likes != nil {
			blog.Likes = *req.Likes
		}

		view, err := s.save(ctx, blog)
		if errors.Is(err, repository.ErrBlogConflict) {
			continue
		}
		return view, err
	}

	return nil, fmt.Errorf("failed to update blog after %d attempts: %w", maxUpdateAttempts, repository.ErrBlogConflict)
}

func (s *BlogService) Like(ctx context.Context, id string) (*domain.BlogView, error) {
	blog, err := s.blogRepo.IncrementLikes(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to like blog: %w", err)
	}

	return s.published(ctx, blog)
}

// Delete removes a blog owned by userID. Deleting a blog that does not exist
// succeeds so the operation can be repeated safely.
func (s *BlogService) Delete(ctx context.Context, userID, id string) error {
	blog, err := s.find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBlogNotFound) {
			return nil
		}
		return err
	}

	if !blog.OwnedBy(userID) {
		return ErrAccessDenied
	}

	if err := s.blogRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete blog: %w", err)
	}

	s.notify(domain.BlogDeleted, id, nil)
	return nil
}

func (s *BlogService) save(ctx context.Context, blog *domain.Blog) (*domain.BlogView, error) {
	blog.UpdatedAt = time.Now()

	if err := s.blogRepo.Update(ctx, blog); err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to update blog: %w", err)
	}

	return s.published(ctx, blog)
}

// published renders a stored change and announces it.
func (s *BlogService) published(ctx context.Context, blog *domain.Blog) (*domain.BlogView, error) {
	view, err := s.toView(ctx, blog)
	if err != nil {
		return nil, err
	}

	s.notify(domain.BlogUpdated, blog.ID, view)
	return view, nil
}

func (s *BlogService) find(ctx context.Context, id string) (*domain.Blog, error) {
	blog, err := s.blogRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}
	return blog, nil
}

func (s *BlogService) toView(ctx context.Context, blog *domain.Blog) (*domain.BlogView, error) {
	author, err := s.cachedAuthor(ctx, nil, blog.Author)
	if err != nil {
		return nil, err
	}
	return blog.ToView(author), nil
}

// cachedAuthor resolves an author id, tolerating authors that were removed.
// cache may be nil.
func (s *BlogService) cachedAuthor(ctx context.Context, cache map[string]*domain.User, authorID string) (*domain.User, error) {
	if authorID == "" {
		return nil, nil
	}
	if u, ok := cache[authorID]; ok {
		return u, nil
	}

	user, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to resolve blog author: %w", err)
	}

	if cache != nil {
		cache[authorID] = user
	}
	return user, nil
}

func (s *BlogService) notify(eventType domain.BlogEventType, blogID string, view *domain.BlogView) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyBlogEvent(domain.BlogEvent{
		Type:   eventType,
		BlogID: blogID,
		Blog:   view,
	})
}
