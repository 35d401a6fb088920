package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/blog-api/internal/models"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
)

type likeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	Exists(ctx context.Context, blogID, userID string) (bool, error)
	Delete(ctx context.Context, blogID, userID string) (bool, error)
}

// LikeResult reports the updated counter after a like or unlike.
type LikeResult struct {
	LikesCount int `json:"likesCount"`
}

// LikeService provides like and unlike use cases.
type LikeService struct {
	likes  likeRepository
	blogs  counterBlogRepository
	logger *zap.Logger
}

// NewLikeService constructs a LikeService instance.
func NewLikeService(likes likeRepository, blogs counterBlogRepository, logger *zap.Logger) *LikeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LikeService{likes: likes, blogs: blogs, logger: logger}
}

// Like records that the authenticated user liked the blog post. A user may
// like a post at most once.
func (s *LikeService) Like(ctx context.Context, blogID, userID string) (*LikeResult, error) {
	if _, err := s.blogs.FindByID(ctx, blogID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to fetch blog")
	}

	already, err := s.likes.Exists(ctx, blogID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to check like")
	}
	if already {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "you already liked this blog")
	}

	if err := s.likes.Create(ctx, &models.Like{BlogID: blogID, UserID: userID}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to create like")
	}

	count, err := s.blogs.IncrementLikes(ctx, blogID, 1)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to bump like counter")
	}
	return &LikeResult{LikesCount: count}, nil
}

// Unlike removes the authenticated user's like from the blog post.
func (s *LikeService) Unlike(ctx context.Context, blogID, userID string) (*LikeResult, error) {
	if _, err := s.blogs.FindByID(ctx, blogID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to fetch blog")
	}

	removed, err := s.likes.Delete(ctx, blogID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to delete like")
	}
	if !removed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "you have not liked this blog")
	}

	count, err := s.blogs.IncrementLikes(ctx, blogID, -1)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to drop like counter")
	}
	return &LikeResult{LikesCount: count}, nil
}
