package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest creates a new user account.
type RegisterRequest struct {
	Email    string   `json:"email" validate:"required,email,max=50"`
	Password string   `json:"password" validate:"required,min=8"`
	Role     UserRole `json:"role" validate:"omitempty,oneof=user admin"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserInfo describes the authenticated user in session responses. The
// password hash never leaves the server.
type UserInfo struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}

// Session is the result of establishing a session. The refresh token is
// excluded from the body; it travels only as an HTTP-only cookie.
type Session struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"-"`
}

// RefreshResponse returns a freshly minted access token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// TokenClaims is the JWT payload shared by both token kinds.
type TokenClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}
