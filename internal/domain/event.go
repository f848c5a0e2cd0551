package domain

type BlogEventType string

const (
	BlogCreated BlogEventType = "blog_created"
	BlogUpdated BlogEventType = "blog_updated"
	BlogDeleted BlogEventType = "blog_deleted"
)

// BlogEvent describes a committed change to a blog. Blog is nil for deletions.
type BlogEvent struct {
	Type   BlogEventType
	BlogID string
	Blog   *BlogView
}
