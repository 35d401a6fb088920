package models

import "time"

// RefreshToken is the record kept in the token store for one outstanding,
// not-yet-revoked refresh token. Expiry at rest is enforced by the store's
// own TTL mechanism rather than a column.
type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
