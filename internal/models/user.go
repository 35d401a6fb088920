package models

import "time"

// UserRole represents the coarse privilege tiers gating route access.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	FirstName    string    `db:"first_name" json:"firstName,omitempty"`
	LastName     string    `db:"last_name" json:"lastName,omitempty"`
	Website      string    `db:"website" json:"website,omitempty"`
	Facebook     string    `db:"facebook" json:"facebook,omitempty"`
	Instagram    string    `db:"instagram" json:"instagram,omitempty"`
	LinkedIn     string    `db:"linkedin" json:"linkedin,omitempty"`
	X            string    `db:"x" json:"x,omitempty"`
	YouTube      string    `db:"youtube" json:"youtube,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// UserFilter captures pagination bounds for listing users.
type UserFilter struct {
	Limit  int
	Offset int
}

// ListMeta echoes the applied pagination window alongside the total count.
type ListMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}
