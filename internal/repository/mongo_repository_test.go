package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloglist-server/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoUserRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	user := &domain.User{
		ID:           "user-1",
		Username:     "test",
		Name:         "John",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}

	mt.Run("success", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := repo.Create(context.Background(), user); err != nil {
			t.Errorf("Create() unexpected error = %v", err)
		}
	})

	mt.Run("duplicate username", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: bloglist.users index: username_1",
		}))

		err := repo.Create(context.Background(), user)
		if !errors.Is(err, ErrUsernameExists) {
			t.Errorf("Create() error = %v, want ErrUsernameExists", err)
		}
	})
}

func TestMongoUserRepository_FindByUsername(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		ns := mt.DB.Name() + "." + usersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "user-1"},
			{Key: "username", Value: "test"},
			{Key: "name", Value: "John"},
			{Key: "password_hash", Value: "hash"},
		}))

		user, err := repo.FindByUsername(context.Background(), "test")
		if err != nil {
			t.Fatalf("FindByUsername() unexpected error = %v", err)
		}
		if user.ID != "user-1" || user.PasswordHash != "hash" {
			t.Errorf("FindByUsername() = %+v", user)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		ns := mt.DB.Name() + "." + usersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByUsername(context.Background(), "nobody")
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("FindByUsername() error = %v, want ErrUserNotFound", err)
		}
	})
}

func TestMongoBlogRepository_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns all blogs", func(mt *mtest.T) {
		repo := NewMongoBlogRepository(mt.DB)
		ns := mt.DB.Name() + "." + blogsCollection

		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "blog-1"},
			{Key: "title", Value: "First blog"},
			{Key: "url", Value: "http://localhost:1234/1-blog"},
			{Key: "author", Value: "user-1"},
			{Key: "likes", Value: 5},
		})
		second := mtest.CreateCursorResponse(1, ns, mtest.NextBatch, bson.D{
			{Key: "_id", Value: "blog-2"},
			{Key: "title", Value: "Next blog"},
			{Key: "url", Value: "http://localhost:1234/next-blog"},
		})
		done := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, second, done)

		blogs, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("List() unexpected error = %v", err)
		}
		if len(blogs) != 2 {
			t.Fatalf("List() returned %d blogs, want 2", len(blogs))
		}
		if blogs[0].Likes != 5 || blogs[1].Likes != 0 {
			t.Errorf("List() likes = %d, %d", blogs[0].Likes, blogs[1].Likes)
		}
		if blogs[1].Author != "" {
			t.Errorf("List() author = %q, want empty", blogs[1].Author)
		}
	})
}

func TestMongoBlogRepository_UpdateAndDelete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	blog := func() *domain.Blog {
		return &domain.Blog{ID: "blog-1", Title: "First blog", URL: "http://x/1", Likes: 15, Revision: "3"}
	}

	mt.Run("update matched", func(mt *mtest.T) {
		repo := NewMongoBlogRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})

		b := blog()
		if err := repo.Update(context.Background(), b); err != nil {
			t.Errorf("Update() unexpected error = %v", err)
		}
		if b.Revision != "4" {
			t.Errorf("Update() revision = %q, want 4", b.Revision)
		}
	})

	mt.Run("update stale version", func(mt *mtest.T) {
		repo := NewMongoBlogRepository(mt.DB)
		ns := mt.DB.Name() + "." + blogsCollection
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}},
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: "blog-1"}}),
		)

		if err := repo.Update(context.Background(), blog()); !errors.Is(err, ErrBlogConflict) {
			t.Errorf("Update() error = %v, want ErrBlogConflict", err)
		}
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := NewMongoBlogRepository(mt.DB)
		ns := mt.DB.Name() + "." + blogsCollection
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}},
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		if err := repo.Update(context.Background(), blog()); !errors.Is(err, ErrBlogNotFound) {
			t.Errorf("Update() error = %v, want ErrBlogNotFound", err)
		}
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := NewMongoBlogRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})

		if err := repo.Delete(context.Background(), "blog-1"); !errors.Is(err, ErrBlogNotFound) {
			t.Errorf("Delete() error = %v, want ErrBlogNotFound", err)
		}
	})
}

func TestMongoBlogRepository_IncrementLikes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns updated blog", func(mt *mtest.T) {
		repo := NewMongoBlogRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "blog-1"},
			{Key: "title", Value: "First blog"},
			{Key: "url", Value: "http://x/1"},
			{Key: "likes", Value: 6},
			{Key: "version", Value: int64(7)},
		}}))

		blog, err := repo.IncrementLikes(context.Background(), "blog-1")
		if err != nil {
			t.Fatalf("IncrementLikes() unexpected error = %v", err)
		}
		if blog.Likes != 6 || blog.Revision != "7" {
			t.Errorf("IncrementLikes() = %+v", blog)
		}
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewMongoBlogRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		if _, err := repo.IncrementLikes(context.Background(), "blog-1"); !errors.Is(err, ErrBlogNotFound) {
			t.Errorf("IncrementLikes() error = %v, want ErrBlogNotFound", err)
		}
	})
}
