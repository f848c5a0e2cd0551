package repository

import (
	"context"
	"strconv"
	"sync"
	"time"

	"bloglist-server/internal/domain"
)

// MemoryStore keeps users and blogs in process memory. It backs the
// "memory" database driver used for local runs and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
	blogs map[string]domain.Blog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]domain.User),
		blogs: make(map[string]domain.Blog),
	}
}

func (m *MemoryStore) Users() *MemoryUserRepository {
	return &MemoryUserRepository{store: m}
}

func (m *MemoryStore) Blogs() *MemoryBlogRepository {
	return &MemoryBlogRepository{store: m}
}

// BlogCount is a test helper.
func (m *MemoryStore) BlogCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blogs)
}

type MemoryUserRepository struct {
	store *MemoryStore
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, u := range r.store.users {
		if u.Username == user.Username {
			return ErrUsernameExists
		}
	}

	r.store.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		u := u
		users = append(users, &u)
	}

	sortUsers(users)
	return users, nil
}

// Delete is not part of UserRepository; tests use it to simulate removed accounts.
func (r *MemoryUserRepository) Delete(id string) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.users, id)
}

type MemoryBlogRepository struct {
	store *MemoryStore
}

func (r *MemoryBlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	blog.Revision = nextRevision("")
	r.store.blogs[blog.ID] = *blog
	return nil
}

func (r *MemoryBlogRepository) FindByID(ctx context.Context, id string) (*domain.Blog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.blogs[id]
	if !ok {
		return nil, ErrBlogNotFound
	}
	return &b, nil
}

func (r *MemoryBlogRepository) List(ctx context.Context) ([]*domain.Blog, error) {
	return r.filter(func(*domain.Blog) bool { return true }), nil
}

func (r *MemoryBlogRepository) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Blog, error) {
	return r.filter(func(b *domain.Blog) bool { return b.Author == authorID }), nil
}

func (r *MemoryBlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.blogs[blog.ID]
	if !ok {
		return ErrBlogNotFound
	}
	if stored.Revision != blog.Revision {
		return ErrBlogConflict
	}

	blog.Revision = nextRevision(stored.Revision)
	r.store.blogs[blog.ID] = *blog
	return nil
}

func (r *MemoryBlogRepository) IncrementLikes(ctx context.Context, id string) (*domain.Blog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.blogs[id]
	if !ok {
		return nil, ErrBlogNotFound
	}

	b.Likes++
	b.UpdatedAt = time.Now()
	b.Revision = nextRevision(b.Revision)
	r.store.blogs[id] = b

	return &b, nil
}

func (r *MemoryBlogRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.blogs[id]; !ok {
		return ErrBlogNotFound
	}
	delete(r.store.blogs, id)
	return nil
}

func (r *MemoryBlogRepository) filter(keep func(*domain.Blog) bool) []*domain.Blog {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var blogs []*domain.Blog
	for _, b := range r.store.blogs {
		b := b
		if keep(&b) {
			blogs = append(blogs, &b)
		}
	}

	sortBlogs(blogs)
	return blogs
}

func nextRevision(rev string) string {
	n, _ := strconv.Atoi(rev)
	return strconv.Itoa(n + 1)
}
