package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/blog-api/internal/models"
	"github.com/noah-isme/blog-api/internal/service"
	"github.com/noah-isme/blog-api/pkg/config"
)

type memUserRepo struct {
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*models.User)}
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *memUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, ok := m.users[email]
	return ok, nil
}

func (m *memUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u1"
	}
	m.users[user.Email] = user
	return nil
}

type memTokenRepo struct {
	tokens map[string]*models.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (m *memTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *memTokenRepo) Exists(ctx context.Context, token string) (bool, error) {
	_, ok := m.tokens[token]
	return ok, nil
}

func (m *memTokenRepo) DeleteOne(ctx context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		Env: config.EnvDevelopment,
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessExpiry:  time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "blog-api",
		},
	}

	tokenSvc := service.NewTokenService(cfg.JWT)
	authSvc := service.NewAuthService(newMemUserRepo(), newMemTokenRepo(), tokenSvc, nil, zap.NewNop(), nil)
	h := NewAuthHandler(authSvc, cfg)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := r.Group("/api/v1/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh-token", h.Refresh)
	auth.POST("/logout", h.Logout)
	return r
}

func doJSON(r *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)
	return w
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}
	t.Fatal("refreshToken cookie not set")
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	r := newAuthRouter(t)

	// Register establishes a session and sets the refresh cookie.
	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", `{"email":"user@example.com","password":"password123"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var session struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		} `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "user@example.com", session.User.Email)
	assert.Equal(t, "user", session.User.Role)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotContains(t, w.Body.String(), "refreshToken")

	cookie := refreshCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.False(t, cookie.Secure)

	// Refresh with the cookie yields a fresh access token.
	w = doJSON(r, http.MethodPost, "/api/v1/auth/refresh-token", "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)
	var refreshed struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, session.AccessToken, refreshed.AccessToken)

	// Logout clears the cookie.
	w = doJSON(r, http.MethodPost, "/api/v1/auth/logout", "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusNoContent, w.Code)
	cleared := refreshCookie(t, w)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	// The revoked token no longer refreshes.
	w = doJSON(r, http.MethodPost, "/api/v1/auth/refresh-token", "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AuthorizationError")
}

func TestLoginUnknownUserReturns404(t *testing.T) {
	r := newAuthRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", `{"email":"ghost@example.com","password":"password123"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NotFound")
}

func TestRefreshWithoutCookieReturns401(t *testing.T) {
	r := newAuthRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/refresh-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AuthorizationError")
}

func TestLogoutWithoutCookieIsNoContent(t *testing.T) {
	r := newAuthRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
