package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/noah-isme/blog-api/internal/models"
	"github.com/noah-isme/blog-api/pkg/config"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
	"github.com/noah-isme/blog-api/pkg/storage"
)

type blogRepository interface {
	Create(ctx context.Context, blog *models.Blog) error
	FindByID(ctx context.Context, id string) (*models.Blog, error)
	FindBySlug(ctx context.Context, slug string) (*models.Blog, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error)
	Update(ctx context.Context, blog *models.Blog) error
	Delete(ctx context.Context, id string) error
}

// CreateBlogRequest carries the fields of a new post.
type CreateBlogRequest struct {
	Title   string            `json:"title" validate:"required,max=180"`
	Content string            `json:"content" validate:"required"`
	Status  models.BlogStatus `json:"status" validate:"omitempty,oneof=draft published"`
}

// UpdateBlogRequest carries the mutable fields of a post. Zero-valued fields
// are left unchanged.
type UpdateBlogRequest struct {
	Title   string            `json:"title" validate:"omitempty,max=180"`
	Content string            `json:"content" validate:"omitempty"`
	Status  models.BlogStatus `json:"status" validate:"omitempty,oneof=draft published"`
}

// BannerUpload is an in-memory uploaded banner image.
type BannerUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// BlogService provides blog post use cases. Content is sanitized on the way
// in, banner images are stored on disk and served through signed links.
type BlogService struct {
	blogs     blogRepository
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	cleaner   bannerCleaner
	sanitizer *bluemonday.Policy
	validator *validator.Validate
	logger    *zap.Logger
	uploads   config.UploadsConfig
	bannerURL string
}

// NewBlogService constructs a BlogService instance. bannerBasePath is the
// route prefix signed banner links are served under.
func NewBlogService(blogs blogRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, cleaner bannerCleaner, validate *validator.Validate, logger *zap.Logger, uploads config.UploadsConfig, bannerBasePath string) *BlogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BlogService{
		blogs:     blogs,
		store:     store,
		signer:    signer,
		cleaner:   cleaner,
		sanitizer: bluemonday.UGCPolicy(),
		validator: validate,
		logger:    logger,
		uploads:   uploads,
		bannerURL: strings.TrimSuffix(bannerBasePath, "/"),
	}
}

// Create stores a new blog post with its banner image.
func (s *BlogService) Create(ctx context.Context, authorID string, req CreateBlogRequest, banner *BannerUpload) (*models.Blog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blog payload")
	}
	if banner != nil {
		if err := s.validateBanner(banner); err != nil {
			return nil, err
		}
	}

	postSlug, err := s.deriveSlug(ctx, req.Title)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.BlogStatusDraft
	}

	blog := &models.Blog{
		Title:    req.Title,
		Slug:     postSlug,
		Content:  s.sanitizer.Sanitize(req.Content),
		Status:   status,
		AuthorID: authorID,
	}

	if banner != nil {
		bannerPath, err := s.saveBanner(blog, banner)
		if err != nil {
			return nil, err
		}
		blog.BannerPath = bannerPath
	}

	if err := s.blogs.Create(ctx, blog); err != nil {
		if blog.BannerPath != "" && s.cleaner != nil {
			s.cleaner.EnqueueCleanup([]string{blog.BannerPath})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to create blog")
	}

	s.logger.Info("blog created", zap.String("blogId", blog.ID), zap.String("slug", blog.Slug))
	s.decorate(blog)
	return blog, nil
}

// GetByID returns a blog post. Drafts are visible only to their author and
// admins.
func (s *BlogService) GetByID(ctx context.Context, id, actorID string, actorRole models.UserRole) (*models.Blog, error) {
	blog, err := s.find(ctx, id, s.blogs.FindByID)
	if err != nil {
		return nil, err
	}
	if !canSee(blog, actorID, actorRole) {
		return nil, appErrors.Clone(appErrors.ErrAuthorization, "you are not allowed to view this blog")
	}
	s.decorate(blog)
	return blog, nil
}

// GetBySlug returns a blog post looked up by slug.
func (s *BlogService) GetBySlug(ctx context.Context, postSlug, actorID string, actorRole models.UserRole) (*models.Blog, error) {
	blog, err := s.find(ctx, postSlug, s.blogs.FindBySlug)
	if err != nil {
		return nil, err
	}
	if !canSee(blog, actorID, actorRole) {
		return nil, appErrors.Clone(appErrors.ErrAuthorization, "you are not allowed to view this blog")
	}
	s.decorate(blog)
	return blog, nil
}

// List returns a page of blog posts. Non-admin callers see published posts
// only, except when listing their own.
func (s *BlogService) List(ctx context.Context, filter models.BlogFilter, actorID string, actorRole models.UserRole) ([]models.Blog, int, error) {
	if actorRole != models.RoleAdmin && filter.AuthorID != actorID {
		published := models.BlogStatusPublished
		filter.Status = &published
	}

	blogs, total, err := s.blogs.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to list blogs")
	}
	for i := range blogs {
		s.decorate(&blogs[i])
	}
	return blogs, total, nil
}

// Update applies changes to a post. Only the author or an admin may update.
func (s *BlogService) Update(ctx context.Context, id, actorID string, actorRole models.UserRole, req UpdateBlogRequest, banner *BannerUpload) (*models.Blog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blog payload")
	}

	blog, err := s.find(ctx, id, s.blogs.FindByID)
	if err != nil {
		return nil, err
	}
	if !canModify(blog, actorID, actorRole) {
		return nil, appErrors.Clone(appErrors.ErrAuthorization, "you are not allowed to modify this blog")
	}

	if req.Title != "" && req.Title != blog.Title {
		postSlug, err := s.deriveSlug(ctx, req.Title)
		if err != nil {
			return nil, err
		}
		blog.Title = req.Title
		blog.Slug = postSlug
	}
	if req.Content != "" {
		blog.Content = s.sanitizer.Sanitize(req.Content)
	}
	if req.Status != "" {
		blog.Status = req.Status
	}

	oldBanner := ""
	if banner != nil {
		if err := s.validateBanner(banner); err != nil {
			return nil, err
		}
		bannerPath, err := s.saveBanner(blog, banner)
		if err != nil {
			return nil, err
		}
		if bannerPath != blog.BannerPath {
			oldBanner = blog.BannerPath
		}
		blog.BannerPath = bannerPath
	}

	if err := s.blogs.Update(ctx, blog); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to update blog")
	}

	if oldBanner != "" && s.cleaner != nil {
		s.cleaner.EnqueueCleanup([]string{oldBanner})
	}

	s.decorate(blog)
	return blog, nil
}

// Delete removes a post. Only the author or an admin may delete.
func (s *BlogService) Delete(ctx context.Context, id, actorID string, actorRole models.UserRole) error {
	blog, err := s.find(ctx, id, s.blogs.FindByID)
	if err != nil {
		return err
	}
	if !canModify(blog, actorID, actorRole) {
		return appErrors.Clone(appErrors.ErrAuthorization, "you are not allowed to modify this blog")
	}

	if err := s.blogs.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to delete blog")
	}
	if blog.BannerPath != "" && s.cleaner != nil {
		s.cleaner.EnqueueCleanup([]string{blog.BannerPath})
	}
	s.logger.Info("blog deleted", zap.String("blogId", id))
	return nil
}

// BannerFilePath validates a signed banner token and returns the absolute
// file path to serve.
func (s *BlogService) BannerFilePath(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.WithStatus(appErrors.Clone(appErrors.ErrAuthorization, "invalid or expired banner link"), http.StatusUnauthorized)
	}
	return s.store.Path(relPath), nil
}

func (s *BlogService) find(ctx context.Context, key string, lookup func(context.Context, string) (*models.Blog, error)) (*models.Blog, error) {
	blog, err := lookup(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to fetch blog")
	}
	return blog, nil
}

func (s *BlogService) deriveSlug(ctx context.Context, title string) (string, error) {
	postSlug := slug.Make(title)
	if postSlug == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "title does not produce a usable slug")
	}
	exists, err := s.blogs.SlugExists(ctx, postSlug)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to check slug")
	}
	if exists {
		return "", appErrors.Clone(appErrors.ErrValidation, "a blog with a similar title already exists")
	}
	return postSlug, nil
}

func (s *BlogService) validateBanner(banner *BannerUpload) error {
	if int64(len(banner.Data)) > s.uploads.MaxFileSizeBytes {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("banner image must be at most %d bytes", s.uploads.MaxFileSizeBytes))
	}
	for _, mime := range s.uploads.AllowedMIMEs {
		if strings.EqualFold(banner.ContentType, mime) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "banner image type is not allowed")
}

func (s *BlogService) saveBanner(blog *models.Blog, banner *BannerUpload) (string, error) {
	ext := strings.ToLower(path.Ext(banner.Filename))
	if ext == "" {
		ext = ".img"
	}
	relPath := fmt.Sprintf("banners/%s-%s%s", blog.Slug, randomHex(4), ext)
	if _, err := s.store.Save(relPath, banner.Data); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to store banner image")
	}
	return relPath, nil
}

// decorate fills the derived banner URL from the stored path.
func (s *BlogService) decorate(blog *models.Blog) {
	if blog.BannerPath == "" || s.signer == nil {
		return
	}
	token, _, err := s.signer.Generate(blog.ID, blog.BannerPath)
	if err != nil {
		s.logger.Warn("failed to sign banner url", zap.String("blogId", blog.ID), zap.Error(err))
		return
	}
	blog.BannerURL = fmt.Sprintf("%s/%s", s.bannerURL, token)
}

func canSee(blog *models.Blog, actorID string, actorRole models.UserRole) bool {
	if blog.Status == models.BlogStatusPublished {
		return true
	}
	return actorRole == models.RoleAdmin || blog.AuthorID == actorID
}

func canModify(blog *models.Blog, actorID string, actorRole models.UserRole) bool {
	return actorRole == models.RoleAdmin || blog.AuthorID == actorID
}
