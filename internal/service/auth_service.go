package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/blog-api/internal/models"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

type authTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	Exists(ctx context.Context, token string) (bool, error)
	DeleteOne(ctx context.Context, token string) error
}

type tokenMinter interface {
	MintAccessToken(userID string) (string, error)
	MintRefreshToken(userID string) (string, error)
	VerifyRefreshToken(token string) (string, error)
}

// AuthService implements the session flows: register, login, refresh and
// logout.
type AuthService struct {
	users          authUserRepository
	tokens         authTokenRepository
	minter         tokenMinter
	validator      *validator.Validate
	logger         *zap.Logger
	adminWhitelist map[string]struct{}
}

// NewAuthService constructs an AuthService instance. Only emails on the
// admin whitelist may register with the admin role.
func NewAuthService(users authUserRepository, tokens authTokenRepository, minter tokenMinter, validate *validator.Validate, logger *zap.Logger, adminEmails []string) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	whitelist := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		whitelist[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	return &AuthService{
		users:          users,
		tokens:         tokens,
		minter:         minter,
		validator:      validate,
		logger:         logger,
		adminWhitelist: whitelist,
	}
}

// Register creates a new account and establishes a session for it.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role == models.RoleAdmin && !s.isWhitelistedAdmin(req.Email) {
		return nil, appErrors.Clone(appErrors.ErrAuthorization, "you cannot register as an admin")
	}

	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is already registered")
	}

	username, err := s.genUsername(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to generate username")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("userId", user.ID), zap.String("role", string(user.Role)))
	return s.establishSession(ctx, user)
}

// Login authenticates a user by email and password and establishes a
// session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrAuthentication, "invalid password")
	}

	return s.establishSession(ctx, user)
}

// Refresh exchanges a still-outstanding refresh token for a new access
// token. The store lookup runs before signature verification so a revoked
// token fails the same way as a forged one.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.RefreshResponse, error) {
	if refreshToken == "" {
		return nil, appErrors.WithStatus(appErrors.Clone(appErrors.ErrAuthorization, "refresh token required"), http.StatusUnauthorized)
	}

	outstanding, err := s.tokens.Exists(ctx, refreshToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to check refresh token")
	}
	if !outstanding {
		return nil, appErrors.WithStatus(appErrors.Clone(appErrors.ErrAuthorization, "invalid refresh token"), http.StatusUnauthorized)
	}

	userID, err := s.minter.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, appErrors.WithStatus(appErrors.Clone(appErrors.ErrAuthorization, "refresh token has expired, please login again"), http.StatusUnauthorized)
		}
		return nil, appErrors.WithStatus(appErrors.Clone(appErrors.ErrAuthorization, "invalid refresh token"), http.StatusUnauthorized)
	}

	accessToken, err := s.minter.MintAccessToken(userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to create access token")
	}

	return &models.RefreshResponse{AccessToken: accessToken}, nil
}

// Logout revokes the given refresh token. Revoking a token that is already
// gone succeeds, so repeated logouts are harmless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.DeleteOne(ctx, refreshToken); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to revoke refresh token")
	}
	return nil
}

func (s *AuthService) establishSession(ctx context.Context, user *models.User) (*models.Session, error) {
	accessToken, err := s.minter.MintAccessToken(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to create access token")
	}

	refreshToken, err := s.minter.MintRefreshToken(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to create refresh token")
	}

	// Persist before returning so the token is refreshable the moment the
	// client receives it.
	if err := s.tokens.Create(ctx, &models.RefreshToken{Token: refreshToken, UserID: user.ID}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to persist refresh token")
	}

	return &models.Session{
		User: models.UserInfo{
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) isWhitelistedAdmin(email string) bool {
	_, ok := s.adminWhitelist[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// genUsername produces a random handle like user-3f9a2c1d9b804e12, retrying
// on the unlikely collision.
func (s *AuthService) genUsername(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		candidate := fmt.Sprintf("user-%s", randomHex(8))
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errors.New("could not generate unique username")
}
