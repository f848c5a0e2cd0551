package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bloglist-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

var (
	ErrBlogNotFound = errors.New("blog not found")
	ErrBlogConflict = errors.New("blog was modified concurrently")
)

type BlogRepository interface {
	Create(ctx context.Context, blog *domain.Blog) error
	FindByID(ctx context.Context, id string) (*domain.Blog, error)
	List(ctx context.Context) ([]*domain.Blog, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*domain.Blog, error)
	// Update writes blog back if it is unchanged since it was read at
	// blog.Revision, otherwise it fails with ErrBlogConflict.
	Update(ctx context.Context, blog *domain.Blog) error
	// IncrementLikes adds one like as a single atomic store operation and
	// returns the updated blog.
	IncrementLikes(ctx context.Context, id string) (*domain.Blog, error)
	Delete(ctx context.Context, id string) error
}

type CouchDBBlogRepository struct {
	db *kivik.DB
}

type blogDoc struct {
	ID        string `json:"_id"`
	Rev       string `json:"_rev,omitempty"`
	DocType   string `json:"doc_type"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Author    string `json:"author,omitempty"`
	Likes     int    `json:"likes"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewBlogRepository(client *kivik.Client, dbName string) *CouchDBBlogRepository {
	return &CouchDBBlogRepository{
		db: client.DB(dbName),
	}
}

func (r *CouchDBBlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	doc := blogToDoc(blog, "")

	rev, err := r.db.Put(ctx, doc.ID, doc)
	if err != nil {
		return fmt.Errorf("failed to create blog: %w", err)
	}

	blog.Revision = rev
	return nil
}

func (r *CouchDBBlogRepository) FindByID(ctx context.Context, id string) (*domain.Blog, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	return docToBlog(doc)
}

func (r *CouchDBBlogRepository) List(ctx context.Context) ([]*domain.Blog, error) {
	return r.find(ctx, map[string]interface{}{
		"doc_type": docTypeBlog,
	})
}

func (r *CouchDBBlogRepository) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Blog, error) {
	return r.find(ctx, map[string]interface{}{
		"doc_type": docTypeBlog,
		"author":   authorID,
	})
}

func (r *CouchDBBlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	if blog.Revision == "" {
		// a Put without _rev would create the document
		if _, err := r.get(ctx, blog.ID); err != nil {
			return err
		}
		return ErrBlogConflict
	}

	doc := blogToDoc(blog, blog.Revision)

	rev, err := r.db.Put(ctx, doc.ID, doc)
	if err != nil {
		if kivik.HTTPStatus(err) == 409 {
			return ErrBlogConflict
		}
		return fmt.Errorf("failed to update blog: %w", err)
	}

	blog.Revision = rev
	return nil
}

// IncrementLikes retries the read-modify-write while CouchDB reports a
// revision conflict.
func (r *CouchDBBlogRepository) IncrementLikes(ctx context.Context, id string) (*domain.Blog, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		doc, err := r.get(ctx, id)
		if err != nil {
			return nil, err
		}

		doc.Likes++
		doc.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

		rev, err := r.db.Put(ctx, doc.ID, doc)
		if err != nil {
			if kivik.HTTPStatus(err) == 409 {
				continue
			}
			return nil, fmt.Errorf("failed to like blog: %w", err)
		}

		doc.Rev = rev
		return docToBlog(doc)
	}

	return nil, fmt.Errorf("failed to like blog: %w", ErrBlogConflict)
}

func (r *CouchDBBlogRepository) Delete(ctx context.Context, id string) error {
	doc, err := r.get(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.Delete(ctx, doc.ID, doc.Rev); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return ErrBlogNotFound
		}
		return fmt.Errorf("failed to delete blog: %w", err)
	}

	return nil
}

func (r *CouchDBBlogRepository) get(ctx context.Context, id string) (*blogDoc, error) {
	row := r.db.Get(ctx, blogDocID(id))

	var doc blogDoc
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}

	return &doc, nil
}

func (r *CouchDBBlogRepository) find(ctx context.Context, selector map[string]interface{}) ([]*domain.Blog, error) {
	query := map[string]interface{}{
		"selector": selector,
		"limit":    findLimit,
	}

	rows := r.db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query blogs: %w", err)
	}
	defer rows.Close()

	var blogs []*domain.Blog
	for rows.Next() {
		var doc blogDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}

		blog, err := docToBlog(&doc)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blogs: %w", err)
	}

	sortBlogs(blogs)
	return blogs, nil
}

func blogToDoc(blog *domain.Blog, rev string) blogDoc {
	return blogDoc{
		ID:        blogDocID(blog.ID),
		Rev:       rev,
		DocType:   docTypeBlog,
		Title:     blog.Title,
		URL:       blog.URL,
		Author:    blog.Author,
		Likes:     blog.Likes,
		CreatedAt: blog.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: blog.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func docToBlog(doc *blogDoc) (*domain.Blog, error) {
	createdAt, err := parseTime(doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	updatedAt, err := parseTime(doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &domain.Blog{
		ID:        trimDocPrefix(doc.ID, docTypeBlog),
		Title:     doc.Title,
		URL:       doc.URL,
		Author:    doc.Author,
		Likes:     doc.Likes,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Revision:  doc.Rev,
	}, nil
}

func blogDocID(id string) string {
	return docTypeBlog + ":" + id
}

// sortBlogs orders by creation time, oldest first, with the id as tie-breaker.
func sortBlogs(blogs []*domain.Blog) {
	sort.SliceStable(blogs, func(i, j int) bool {
		if blogs[i].CreatedAt.Equal(blogs[j].CreatedAt) {
			return blogs[i].ID < blogs[j].ID
		}
		return blogs[i].CreatedAt.Before(blogs[j].CreatedAt)
	})
}
