package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/blog-api/internal/models"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Delete(ctx context.Context, id string) error
}

type userBlogRepository interface {
	ListBannerPathsByAuthor(ctx context.Context, authorID string) ([]string, error)
	DeleteByAuthor(ctx context.Context, authorID string) error
}

type bannerCleaner interface {
	EnqueueCleanup(paths []string)
}

// UpdateUserRequest carries the mutable profile fields. Zero-valued fields
// are left unchanged.
type UpdateUserRequest struct {
	Username  string `json:"username" validate:"omitempty,min=3,max=20"`
	Email     string `json:"email" validate:"omitempty,email,max=50"`
	Password  string `json:"password" validate:"omitempty,min=8"`
	FirstName string `json:"firstName" validate:"omitempty,max=20"`
	LastName  string `json:"lastName" validate:"omitempty,max=20"`
	Website   string `json:"website" validate:"omitempty,url,max=100"`
	Facebook  string `json:"facebook" validate:"omitempty,url,max=100"`
	Instagram string `json:"instagram" validate:"omitempty,url,max=100"`
	LinkedIn  string `json:"linkedin" validate:"omitempty,url,max=100"`
	X         string `json:"x" validate:"omitempty,url,max=100"`
	YouTube   string `json:"youtube" validate:"omitempty,url,max=100"`
}

// UserService provides user profile use cases.
type UserService struct {
	users     userRepository
	blogs     userBlogRepository
	cleaner   bannerCleaner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users userRepository, blogs userBlogRepository, cleaner bannerCleaner, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{users: users, blogs: blogs, cleaner: cleaner, validator: validate, logger: logger}
}

// Get returns a user by identifier.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to fetch user")
	}
	return user, nil
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to list users")
	}
	return users, total, nil
}

// UpdateCurrent applies profile changes to the authenticated user.
func (s *UserService) UpdateCurrent(ctx context.Context, userID string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != "" && req.Username != user.Username {
		taken, err := s.users.UsernameExists(ctx, req.Username)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to check username")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrValidation, "username is already taken")
		}
		user.Username = req.Username
	}
	if req.Email != "" && req.Email != user.Email {
		taken, err := s.users.EmailExists(ctx, req.Email)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to check email")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrValidation, "email is already registered")
		}
		user.Email = req.Email
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Website != "" {
		user.Website = req.Website
	}
	if req.Facebook != "" {
		user.Facebook = req.Facebook
	}
	if req.Instagram != "" {
		user.Instagram = req.Instagram
	}
	if req.LinkedIn != "" {
		user.LinkedIn = req.LinkedIn
	}
	if req.X != "" {
		user.X = req.X
	}
	if req.YouTube != "" {
		user.YouTube = req.YouTube
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to update user")
	}
	return user, nil
}

// Delete removes a user account together with their posts. Banner files are
// cleaned up asynchronously after the rows are gone.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	paths, err := s.blogs.ListBannerPathsByAuthor(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to collect banner paths")
	}

	if err := s.blogs.DeleteByAuthor(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to delete user blogs")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to delete user")
	}

	if len(paths) > 0 && s.cleaner != nil {
		s.cleaner.EnqueueCleanup(paths)
	}

	s.logger.Info("user deleted", zap.String("userId", id), zap.Int("banners", len(paths)))
	return nil
}
