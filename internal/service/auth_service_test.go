package service

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/blog-api/internal/models"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
)

type mockUserRepo struct {
	users          map[string]*models.User
	findByEmailErr error
	createErr      error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	user, ok := m.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, ok := m.users[email]
	return ok, nil
}

func (m *mockUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if user.ID == "" {
		user.ID = "generated-id"
	}
	m.users[user.Email] = user
	return nil
}

type mockTokenRepo struct {
	tokens map[string]*models.RefreshToken
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (m *mockTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockTokenRepo) Exists(ctx context.Context, token string) (bool, error) {
	_, ok := m.tokens[token]
	return ok, nil
}

func (m *mockTokenRepo) DeleteOne(ctx context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func newAuthService(users *mockUserRepo, tokens *mockTokenRepo, adminEmails []string) *AuthService {
	minter := NewTokenService(testJWTConfig())
	return NewAuthService(users, tokens, minter, validator.New(), zap.NewNop(), adminEmails)
}

func seedUser(users *mockUserRepo, email, password string, role models.UserRole) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	user := &models.User{ID: "u1", Username: "user-abc", Email: email, PasswordHash: string(hash), Role: role}
	users.users[email] = user
	return user
}

func TestRegisterDefaultsToUserRole(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	svc := newAuthService(users, tokens, nil)

	session, err := svc.Register(context.Background(), models.RegisterRequest{Email: "new@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, session.User.Role)
	assert.True(t, strings.HasPrefix(session.User.Username, "user-"))
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Len(t, tokens.tokens, 1)
}

func TestRegisterAdminRequiresWhitelist(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	svc := newAuthService(users, tokens, []string{"boss@example.com"})

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "sneaky@example.com", Password: "password123", Role: models.RoleAdmin})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAuthorization.Code, appErr.Code)
	assert.Equal(t, http.StatusForbidden, appErr.Status)

	session, err := svc.Register(context.Background(), models.RegisterRequest{Email: "boss@example.com", Password: "password123", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.User.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	seedUser(users, "taken@example.com", "password123", models.RoleUser)
	svc := newAuthService(users, tokens, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "taken@example.com", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginSuccess(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	seedUser(users, "user@example.com", "password123", models.RoleUser)
	svc := newAuthService(users, tokens, nil)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", session.User.Email)
	assert.NotEmpty(t, session.AccessToken)
	assert.Len(t, tokens.tokens, 1)
}

func TestLoginUnknownEmail(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	svc := newAuthService(users, tokens, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "password123"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestLoginWrongPassword(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	seedUser(users, "user@example.com", "password123", models.RoleUser)
	svc := newAuthService(users, tokens, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "wrong-password"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAuthentication.Code, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestRefreshIssuesAccessWithoutRotation(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	seedUser(users, "user@example.com", "password123", models.RoleUser)
	svc := newAuthService(users, tokens, nil)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	// The same refresh token stays outstanding and usable again.
	assert.Len(t, tokens.tokens, 1)
	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshAfterLogout(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	seedUser(users, "user@example.com", "password123", models.RoleUser)
	svc := newAuthService(users, tokens, nil)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))

	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAuthorization.Code, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestRefreshMissingToken(t *testing.T) {
	svc := newAuthService(newMockUserRepo(), newMockTokenRepo(), nil)

	_, err := svc.Refresh(context.Background(), "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAuthorization.Code, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestRefreshExpiredToken(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()

	cfg := testJWTConfig()
	cfg.RefreshExpiry = -time.Minute
	minter := NewTokenService(cfg)
	svc := NewAuthService(users, tokens, minter, validator.New(), zap.NewNop(), nil)

	expired, err := minter.MintRefreshToken("u1")
	require.NoError(t, err)
	tokens.tokens[expired] = &models.RefreshToken{Token: expired, UserID: "u1"}

	_, err = svc.Refresh(context.Background(), expired)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAuthorization.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "expired")
}

func TestLogoutLeavesOtherSessionsIntact(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	seedUser(users, "user@example.com", "password123", models.RoleUser)
	svc := newAuthService(users, tokens, nil)

	phone, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)
	laptop, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotEqual(t, phone.RefreshToken, laptop.RefreshToken)
	require.Len(t, tokens.tokens, 2)

	// Logging out one device revokes only the presented token.
	require.NoError(t, svc.Logout(context.Background(), phone.RefreshToken))
	assert.Len(t, tokens.tokens, 1)

	_, err = svc.Refresh(context.Background(), phone.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAuthorization.Code, appErrors.FromError(err).Code)

	_, err = svc.Refresh(context.Background(), laptop.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutIsIdempotent(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	seedUser(users, "user@example.com", "password123", models.RoleUser)
	svc := newAuthService(users, tokens, nil)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), ""))
}
