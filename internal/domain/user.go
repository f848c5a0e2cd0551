package domain

import "time"

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest fields are declared in the order they are validated.
type RegisterRequest struct {
	Password string `json:"password" validate:"min=3"`
	Username string `json:"username" validate:"min=3"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type UserView struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	Name     string         `json:"name"`
	Blogs    []*BlogSummary `json:"blogs"`
}

func (u *User) ToView(blogs []*Blog) *UserView {
	summaries := make([]*BlogSummary, 0, len(blogs))
	for _, b := range blogs {
		summaries = append(summaries, b.ToSummary())
	}

	return &UserView{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Blogs:    summaries,
	}
}

func (u *User) ToAuthor() *AuthorView {
	return &AuthorView{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
	}
}
