package models

import "time"

// Like marks that a user liked a blog post. One like per user per blog.
type Like struct {
	ID        string    `db:"id" json:"id"`
	BlogID    string    `db:"blog_id" json:"blogId"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
