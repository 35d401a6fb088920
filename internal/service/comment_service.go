package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/noah-isme/blog-api/internal/models"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
)

type commentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	ListByBlog(ctx context.Context, blogID string) ([]models.Comment, error)
	Delete(ctx context.Context, id string) error
}

type counterBlogRepository interface {
	FindByID(ctx context.Context, id string) (*models.Blog, error)
	IncrementComments(ctx context.Context, id string, delta int) (int, error)
	IncrementLikes(ctx context.Context, id string, delta int) (int, error)
}

// CreateCommentRequest carries the body of a new comment.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// CommentService provides comment use cases.
type CommentService struct {
	comments  commentRepository
	blogs     counterBlogRepository
	sanitizer *bluemonday.Policy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService constructs a CommentService instance. Comments are plain
// text, so markup is stripped rather than filtered.
func NewCommentService(comments commentRepository, blogs counterBlogRepository, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommentService{
		comments:  comments,
		blogs:     blogs,
		sanitizer: bluemonday.StrictPolicy(),
		validator: validate,
		logger:    logger,
	}
}

// Create attaches a comment to a blog post on behalf of the authenticated
// user and bumps the denormalized counter.
func (s *CommentService) Create(ctx context.Context, blogID, userID string, req CreateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	if _, err := s.blogs.FindByID(ctx, blogID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to fetch blog")
	}

	comment := &models.Comment{
		BlogID:  blogID,
		UserID:  userID,
		Content: s.sanitizer.Sanitize(req.Content),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to create comment")
	}

	if _, err := s.blogs.IncrementComments(ctx, blogID, 1); err != nil {
		s.logger.Warn("failed to bump comment counter", zap.String("blogId", blogID), zap.Error(err))
	}
	return comment, nil
}

// ListByBlog returns all comments on a blog post.
func (s *CommentService) ListByBlog(ctx context.Context, blogID string) ([]models.Comment, error) {
	if _, err := s.blogs.FindByID(ctx, blogID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to fetch blog")
	}

	comments, err := s.comments.ListByBlog(ctx, blogID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to list comments")
	}
	return comments, nil
}

// Delete removes a comment. Only its author or an admin may delete it.
func (s *CommentService) Delete(ctx context.Context, commentID, actorID string, actorRole models.UserRole) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to fetch comment")
	}

	if actorRole != models.RoleAdmin && comment.UserID != actorID {
		return appErrors.Clone(appErrors.ErrAuthorization, "you are not allowed to delete this comment")
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to delete comment")
	}

	if _, err := s.blogs.IncrementComments(ctx, comment.BlogID, -1); err != nil {
		s.logger.Warn("failed to drop comment counter", zap.String("blogId", comment.BlogID), zap.Error(err))
	}
	return nil
}
