package models

import "time"

// BlogStatus distinguishes drafts from published posts.
type BlogStatus string

const (
	BlogStatusDraft     BlogStatus = "draft"
	BlogStatusPublished BlogStatus = "published"
)

// Blog represents a post stored in the blogs table. BannerURL is derived at
// read time from the stored banner path via the signed-URL signer.
type Blog struct {
	ID             string     `db:"id" json:"id"`
	Title          string     `db:"title" json:"title"`
	Slug           string     `db:"slug" json:"slug"`
	Content        string     `db:"content" json:"content"`
	BannerPath     string     `db:"banner_path" json:"-"`
	BannerURL      string     `db:"-" json:"bannerUrl,omitempty"`
	Status         BlogStatus `db:"status" json:"status"`
	AuthorID       string     `db:"author_id" json:"authorId"`
	AuthorUsername string     `db:"author_username" json:"author,omitempty"`
	LikesCount     int        `db:"likes_count" json:"likesCount"`
	CommentsCount  int        `db:"comments_count" json:"commentsCount"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// BlogFilter captures filtering criteria for listing blogs.
type BlogFilter struct {
	AuthorID string
	Status   *BlogStatus
	Limit    int
	Offset   int
}
