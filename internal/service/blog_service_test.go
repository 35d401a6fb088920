package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/blog-api/internal/models"
	"github.com/noah-isme/blog-api/pkg/config"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
	"github.com/noah-isme/blog-api/pkg/storage"
)

type mockBlogRepo struct {
	byID   map[string]*models.Blog
	bySlug map[string]*models.Blog
}

func newMockBlogRepo() *mockBlogRepo {
	return &mockBlogRepo{byID: make(map[string]*models.Blog), bySlug: make(map[string]*models.Blog)}
}

func (m *mockBlogRepo) Create(ctx context.Context, blog *models.Blog) error {
	if blog.ID == "" {
		blog.ID = fmt.Sprintf("b%d", len(m.byID)+1)
	}
	m.byID[blog.ID] = blog
	m.bySlug[blog.Slug] = blog
	return nil
}

func (m *mockBlogRepo) FindByID(ctx context.Context, id string) (*models.Blog, error) {
	blog, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *blog
	return &copied, nil
}

func (m *mockBlogRepo) FindBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	blog, ok := m.bySlug[slug]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *blog
	return &copied, nil
}

func (m *mockBlogRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, ok := m.bySlug[slug]
	return ok, nil
}

func (m *mockBlogRepo) List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error) {
	var out []models.Blog
	for _, blog := range m.byID {
		if filter.AuthorID != "" && blog.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Status != nil && blog.Status != *filter.Status {
			continue
		}
		out = append(out, *blog)
	}
	return out, len(out), nil
}

func (m *mockBlogRepo) Update(ctx context.Context, blog *models.Blog) error {
	old, ok := m.byID[blog.ID]
	if ok {
		delete(m.bySlug, old.Slug)
	}
	copied := *blog
	m.byID[blog.ID] = &copied
	m.bySlug[blog.Slug] = &copied
	return nil
}

func (m *mockBlogRepo) Delete(ctx context.Context, id string) error {
	blog, ok := m.byID[id]
	if ok {
		delete(m.bySlug, blog.Slug)
		delete(m.byID, id)
	}
	return nil
}

type mockCleaner struct {
	paths []string
}

func (m *mockCleaner) EnqueueCleanup(paths []string) {
	m.paths = append(m.paths, paths...)
}

func testUploadsConfig() config.UploadsConfig {
	return config.UploadsConfig{
		MaxFileSizeBytes: 1024,
		AllowedMIMEs:     []string{"image/png", "image/jpeg"},
	}
}

func newBlogService(t *testing.T, repo *mockBlogRepo, cleaner *mockCleaner) *BlogService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewBlogService(repo, store, signer, cleaner, validator.New(), zap.NewNop(), testUploadsConfig(), "/api/v1/banners")
}

func pngBanner() *BannerUpload {
	return &BannerUpload{Filename: "banner.png", ContentType: "image/png", Data: []byte("png-bytes")}
}

func TestBlogCreateSanitizesAndSlugs(t *testing.T) {
	repo := newMockBlogRepo()
	svc := newBlogService(t, repo, &mockCleaner{})

	blog, err := svc.Create(context.Background(), "author1", CreateBlogRequest{
		Title:   "Hello World!",
		Content: `<p>fine</p><script>alert("x")</script>`,
		Status:  models.BlogStatusPublished,
	}, pngBanner())
	require.NoError(t, err)

	assert.Equal(t, "hello-world", blog.Slug)
	assert.Contains(t, blog.Content, "<p>fine</p>")
	assert.NotContains(t, blog.Content, "<script>")
	assert.NotEmpty(t, blog.BannerURL)
	assert.NotEmpty(t, blog.BannerPath)
}

func TestBlogCreateWithoutBanner(t *testing.T) {
	svc := newBlogService(t, newMockBlogRepo(), &mockCleaner{})

	blog, err := svc.Create(context.Background(), "author1", CreateBlogRequest{Title: "No Banner", Content: "text"}, nil)
	require.NoError(t, err)
	assert.Empty(t, blog.BannerPath)
	assert.Empty(t, blog.BannerURL)
}

func TestBlogCreateRejectsBadBanner(t *testing.T) {
	svc := newBlogService(t, newMockBlogRepo(), &mockCleaner{})

	oversized := &BannerUpload{Filename: "big.png", ContentType: "image/png", Data: make([]byte, 2048)}
	_, err := svc.Create(context.Background(), "author1", CreateBlogRequest{Title: "Big", Content: "text"}, oversized)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	wrongType := &BannerUpload{Filename: "banner.gif", ContentType: "image/gif", Data: []byte("gif")}
	_, err = svc.Create(context.Background(), "author1", CreateBlogRequest{Title: "Gif", Content: "text"}, wrongType)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBlogCreateDuplicateSlug(t *testing.T) {
	repo := newMockBlogRepo()
	svc := newBlogService(t, repo, &mockCleaner{})

	_, err := svc.Create(context.Background(), "author1", CreateBlogRequest{Title: "Same Title", Content: "one"}, pngBanner())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "author1", CreateBlogRequest{Title: "Same Title", Content: "two"}, pngBanner())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBlogDraftHiddenFromOthers(t *testing.T) {
	repo := newMockBlogRepo()
	svc := newBlogService(t, repo, &mockCleaner{})

	blog, err := svc.Create(context.Background(), "author1", CreateBlogRequest{Title: "Secret Draft", Content: "wip"}, pngBanner())
	require.NoError(t, err)
	require.Equal(t, models.BlogStatusDraft, blog.Status)

	_, err = svc.GetByID(context.Background(), blog.ID, "someone-else", models.RoleUser)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAuthorization.Code, appErrors.FromError(err).Code)

	_, err = svc.GetByID(context.Background(), blog.ID, "author1", models.RoleUser)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), blog.ID, "admin-user", models.RoleAdmin)
	require.NoError(t, err)
}

func TestBlogListFiltersDraftsForOthers(t *testing.T) {
	repo := newMockBlogRepo()
	svc := newBlogService(t, repo, &mockCleaner{})

	_, err := svc.Create(context.Background(), "author1", CreateBlogRequest{Title: "Draft One", Content: "wip"}, pngBanner())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "author1", CreateBlogRequest{Title: "Live One", Content: "done", Status: models.BlogStatusPublished}, pngBanner())
	require.NoError(t, err)

	blogs, total, err := svc.List(context.Background(), models.BlogFilter{}, "reader", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, blogs, 1)
	assert.Equal(t, models.BlogStatusPublished, blogs[0].Status)

	blogs, _, err = svc.List(context.Background(), models.BlogFilter{}, "admin-user", models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, blogs, 2)
}

func TestBlogUpdatePermissions(t *testing.T) {
	repo := newMockBlogRepo()
	svc := newBlogService(t, repo, &mockCleaner{})

	blog, err := svc.Create(context.Background(), "author1", CreateBlogRequest{Title: "Mine", Content: "text"}, pngBanner())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), blog.ID, "intruder", models.RoleUser, UpdateBlogRequest{Content: "hijack"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAuthorization.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(context.Background(), blog.ID, "author1", models.RoleUser, UpdateBlogRequest{Status: models.BlogStatusPublished}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusPublished, updated.Status)
}

func TestBlogDeleteEnqueuesBannerCleanup(t *testing.T) {
	repo := newMockBlogRepo()
	cleaner := &mockCleaner{}
	svc := newBlogService(t, repo, cleaner)

	blog, err := svc.Create(context.Background(), "author1", CreateBlogRequest{Title: "Doomed", Content: "text"}, pngBanner())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), blog.ID, "author1", models.RoleUser))
	assert.Equal(t, []string{blog.BannerPath}, cleaner.paths)

	err = svc.Delete(context.Background(), blog.ID, "author1", models.RoleUser)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBannerFilePathRejectsTamperedToken(t *testing.T) {
	svc := newBlogService(t, newMockBlogRepo(), &mockCleaner{})

	_, err := svc.BannerFilePath("not-a-valid-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAuthorization.Code, appErrors.FromError(err).Code)
}
