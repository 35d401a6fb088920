package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/blog-api/internal/models"
	"github.com/noah-isme/blog-api/pkg/config"
)

// Sentinel errors distinguishing how a token verification failed.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenService mints and verifies the two JWT kinds. Access and refresh
// tokens are signed with distinct secrets so one kind can never be accepted
// where the other is expected.
type TokenService struct {
	config config.JWTConfig
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{config: cfg}
}

// MintAccessToken issues a short-lived access token for the user.
func (s *TokenService) MintAccessToken(userID string) (string, error) {
	return s.mint(userID, s.config.AccessSecret, s.config.AccessExpiry)
}

// MintRefreshToken issues a long-lived refresh token for the user.
func (s *TokenService) MintRefreshToken(userID string) (string, error) {
	return s.mint(userID, s.config.RefreshSecret, s.config.RefreshExpiry)
}

// VerifyAccessToken checks signature and expiry of an access token and
// returns the subject user ID.
func (s *TokenService) VerifyAccessToken(token string) (string, error) {
	return s.verify(token, s.config.AccessSecret)
}

// VerifyRefreshToken checks signature and expiry of a refresh token and
// returns the subject user ID.
func (s *TokenService) VerifyRefreshToken(token string) (string, error) {
	return s.verify(token, s.config.RefreshSecret)
}

// RefreshExpiry exposes the configured refresh token lifetime, used to size
// cookies and store TTLs.
func (s *TokenService) RefreshExpiry() time.Duration {
	return s.config.RefreshExpiry
}

func (s *TokenService) mint(userID, secret string, expiry time.Duration) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens minted within the same second distinct.
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) verify(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}
