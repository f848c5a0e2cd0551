package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bloglist-server/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoBlogRepository struct {
	collection *mongo.Collection
}

type blogRecord struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	URL       string    `bson:"url"`
	Author    string    `bson:"author,omitempty"`
	Likes     int       `bson:"likes"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	Version   int64     `bson:"version"`
}

func NewMongoBlogRepository(db *mongo.Database) *MongoBlogRepository {
	return &MongoBlogRepository{
		collection: db.Collection(blogsCollection),
	}
}

func (r *MongoBlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	rec := blogToRecord(blog)
	rec.Version = 1

	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to create blog: %w", err)
	}

	blog.Revision = formatVersion(rec.Version)
	return nil
}

func (r *MongoBlogRepository) FindByID(ctx context.Context, id string) (*domain.Blog, error) {
	var rec blogRecord
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}

	return rec.toDomain(), nil
}

func (r *MongoBlogRepository) List(ctx context.Context) ([]*domain.Blog, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoBlogRepository) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Blog, error) {
	return r.find(ctx, bson.M{"author": authorID})
}

// Update matches on the version the blog was read at, so a concurrent write
// in between leaves the filter unmatched.
func (r *MongoBlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	version, _ := strconv.ParseInt(blog.Revision, 10, 64)

	filter := bson.M{"_id": blog.ID, "version": version}
	update := bson.M{
		"$set": bson.M{
			"title":      blog.Title,
			"url":        blog.URL,
			"likes":      blog.Likes,
			"updated_at": blog.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update blog: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, blog.ID)
	}

	blog.Revision = formatVersion(version + 1)
	return nil
}

func (r *MongoBlogRepository) IncrementLikes(ctx context.Context, id string) (*domain.Blog, error) {
	update := bson.M{
		"$inc": bson.M{"likes": 1, "version": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec blogRecord
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to like blog: %w", err)
	}

	return rec.toDomain(), nil
}

// missOrConflict explains an unmatched versioned update.
func (r *MongoBlogRepository) missOrConflict(ctx context.Context, id string) error {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})

	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Err()
	switch {
	case err == nil:
		return ErrBlogConflict
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrBlogNotFound
	default:
		return fmt.Errorf("failed to update blog: %w", err)
	}
}

func (r *MongoBlogRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrBlogNotFound
	}

	return nil
}

func (r *MongoBlogRepository) find(ctx context.Context, filter bson.M) ([]*domain.Blog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query blogs: %w", err)
	}
	defer cursor.Close(ctx)

	var records []blogRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode blogs: %w", err)
	}

	blogs := make([]*domain.Blog, 0, len(records))
	for i := range records {
		blogs = append(blogs, records[i].toDomain())
	}
	return blogs, nil
}

func blogToRecord(blog *domain.Blog) blogRecord {
	return blogRecord{
		ID:        blog.ID,
		Title:     blog.Title,
		URL:       blog.URL,
		Author:    blog.Author,
		Likes:     blog.Likes,
		CreatedAt: blog.CreatedAt,
		UpdatedAt: blog.UpdatedAt,
	}
}

func (rec *blogRecord) toDomain() *domain.Blog {
	return &domain.Blog{
		ID:        rec.ID,
		Title:     rec.Title,
		URL:       rec.URL,
		Author:    rec.Author,
		Likes:     rec.Likes,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Revision:  formatVersion(rec.Version),
	}
}

func formatVersion(v int64) string {
	return strconv.FormatInt(v, 10)
}
