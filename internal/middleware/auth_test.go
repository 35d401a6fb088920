package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/blog-api/internal/models"
	"github.com/noah-isme/blog-api/internal/service"
	"github.com/noah-isme/blog-api/pkg/config"
)

func newTokenService(accessExpiry time.Duration) *service.TokenService {
	return service.NewTokenService(config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  accessExpiry,
		RefreshExpiry: time.Hour,
		Issuer:        "blog-api",
	})
}

func newAuthRouter(tokens *service.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Authenticate(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c)})
	})
	return r
}

func TestAuthenticateMissingHeader(t *testing.T) {
	r := newAuthRouter(newTokenService(time.Minute))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AuthenticationError")
	assert.Contains(t, w.Body.String(), "no access token provided")
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	r := newAuthRouter(newTokenService(time.Minute))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AuthenticationError")
}

func TestAuthenticateValidToken(t *testing.T) {
	tokens := newTokenService(time.Minute)
	r := newAuthRouter(tokens)

	access, err := tokens.MintAccessToken("u42")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u42")
}

func TestAuthenticateExpiredToken(t *testing.T) {
	expired := newTokenService(-time.Minute)
	r := newAuthRouter(expired)

	access, err := expired.MintAccessToken("u42")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AuthenticationError")
	assert.Contains(t, w.Body.String(), "access token expired")
}

type stubRoleLookup struct {
	roles map[string]models.UserRole
}

func (s *stubRoleLookup) GetRole(ctx context.Context, userID string) (models.UserRole, error) {
	role, ok := s.roles[userID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return role, nil
}

func TestRequireRole(t *testing.T) {
	tokens := newTokenService(time.Minute)
	lookup := &stubRoleLookup{roles: map[string]models.UserRole{
		"admin-1": models.RoleAdmin,
		"user-1":  models.RoleUser,
	}}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", Authenticate(tokens), RequireRole(lookup, models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": Role(c)})
	})

	call := func(userID string) *httptest.ResponseRecorder {
		access, err := tokens.MintAccessToken(userID)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call("admin-1").Code)
	assert.Equal(t, http.StatusForbidden, call("user-1").Code)
	// A token for a deleted user fails the role lookup.
	assert.Equal(t, http.StatusForbidden, call("gone-1").Code)
}
