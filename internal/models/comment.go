package models

import "time"

// Comment represents a reader comment on a blog post.
type Comment struct {
	ID        string    `db:"id" json:"id"`
	BlogID    string    `db:"blog_id" json:"blogId"`
	UserID    string    `db:"user_id" json:"userId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
