package domain

import "time"

type Blog struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Author    string    `json:"author,omitempty"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Revision is the store's version of the blog when it was read. Updates
	// carrying a stale revision are rejected.
	Revision string `json:"-"`
}

// OwnedBy reports whether userID created the blog. Blogs without an author
// belong to nobody.
func (b *Blog) OwnedBy(userID string) bool {
	return b.Author != "" && b.Author == userID
}

type CreateBlogRequest struct {
	Title string `json:"title" validate:"required"`
	URL   string `json:"url" validate:"required"`
	Likes int    `json:"likes" validate:"gte=0"`
}

// UpdateBlogRequest replaces the fields that are present; nil fields keep
// their stored value.
type UpdateBlogRequest struct {
	Title *string `json:"title" validate:"omitnil,min=1"`
	URL   *string `json:"url" validate:"omitnil,min=1"`
	Likes *int    `json:"likes" validate:"omitnil,gte=0"`
}

type AuthorView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type BlogView struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	URL    string      `json:"url"`
	Likes  int         `json:"likes"`
	Author *AuthorView `json:"author"`
}

type BlogSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Likes int    `json:"likes"`
}

func (b *Blog) ToView(author *User) *BlogView {
	view := &BlogView{
		ID:    b.ID,
		Title: b.Title,
		URL:   b.URL,
		Likes: b.Likes,
	}
	if author != nil {
		view.Author = author.ToAuthor()
	}
	return view
}

func (b *Blog) ToSummary() *BlogSummary {
	return &BlogSummary{
		ID:    b.ID,
		Title: b.Title,
		URL:   b.URL,
		Likes: b.Likes,
	}
}
