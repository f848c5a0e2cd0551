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
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

type CouchDBUserRepository struct {
	db *kivik.DB
}

type userDoc struct {
	ID           string `json:"_id"`
	Rev          string `json:"_rev,omitempty"`
	DocType      string `json:"doc_type"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    string `json:"created_at"`
}

// usernameDoc reserves a username. Its _id is derived from the username, so a
// second claim for the same name conflicts inside CouchDB itself.
type usernameDoc struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev,omitempty"`
	DocType string `json:"doc_type"`
	UserID  string `json:"user_id"`
}

func NewUserRepository(client *kivik.Client, dbName string) *CouchDBUserRepository {
	return &CouchDBUserRepository{
		db: client.DB(dbName),
	}
}

func (r *CouchDBUserRepository) Create(ctx context.Context, user *domain.User) error {
	claim := usernameDoc{
		ID:      usernameDocID(user.Username),
		DocType: docTypeUsername,
		UserID:  user.ID,
	}

	claimRev, err := r.db.Put(ctx, claim.ID, claim)
	if err != nil {
		if kivik.HTTPStatus(err) == 409 {
			return ErrUsernameExists
		}
		return fmt.Errorf("failed to reserve username: %w", err)
	}

	doc := userDoc{
		ID:           userDocID(user.ID),
		DocType:      docTypeUser,
		Username:     user.Username,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
	}

	if _, err := r.db.Put(ctx, doc.ID, doc); err != nil {
		// release the reservation so the name can be registered again
		if _, delErr := r.db.Delete(ctx, claim.ID, claimRev); delErr != nil {
			return fmt.Errorf("failed to create user: %w (releasing username: %v)", err, delErr)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *CouchDBUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.Get(ctx, userDocID(id))

	var doc userDoc
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return docToUser(&doc)
}

func (r *CouchDBUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.Get(ctx, usernameDocID(username))

	var claim usernameDoc
	if err := row.ScanDoc(&claim); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	return r.FindByID(ctx, claim.UserID)
}

func (r *CouchDBUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"doc_type": docTypeUser,
		},
		"limit": findLimit,
	}

	rows := r.db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var doc userDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		user, err := docToUser(&doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	sortUsers(users)
	return users, nil
}

func docToUser(doc *userDoc) (*domain.User, error) {
	createdAt, err := parseTime(doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &domain.User{
		ID:           trimDocPrefix(doc.ID, docTypeUser),
		Username:     doc.Username,
		Name:         doc.Name,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    createdAt,
	}, nil
}

func userDocID(id string) string {
	return docTypeUser + ":" + id
}

func usernameDocID(username string) string {
	return docTypeUsername + ":" + username
}

// sortUsers orders by registration time, oldest first, with the id as tie-breaker.
func sortUsers(users []*domain.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}
