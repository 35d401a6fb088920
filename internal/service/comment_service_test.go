package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/blog-api/internal/models"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
)

type mockCommentRepo struct {
	byID map[string]*models.Comment
	seq  int
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{byID: make(map[string]*models.Comment)}
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	m.seq++
	comment.ID = "c" + strconv.Itoa(m.seq)
	m.byID[comment.ID] = comment
	return nil
}

func (m *mockCommentRepo) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	comment, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return comment, nil
}

func (m *mockCommentRepo) ListByBlog(ctx context.Context, blogID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, comment := range m.byID {
		if comment.BlogID == blogID {
			out = append(out, *comment)
		}
	}
	return out, nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func TestCommentCreateStripsMarkup(t *testing.T) {
	blogs := &mockCounterRepo{blog: &models.Blog{ID: "b1", Status: models.BlogStatusPublished}}
	svc := NewCommentService(newMockCommentRepo(), blogs, nil, zap.NewNop())

	comment, err := svc.Create(context.Background(), "b1", "u1", CreateCommentRequest{
		Content: `nice <script>alert("x")</script>post`,
	})
	require.NoError(t, err)
	assert.NotContains(t, comment.Content, "<script>")
	assert.Contains(t, comment.Content, "nice")
	assert.Equal(t, 1, blogs.comments)
}

func TestCommentCreateUnknownBlog(t *testing.T) {
	svc := NewCommentService(newMockCommentRepo(), &mockCounterRepo{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "missing", "u1", CreateCommentRequest{Content: "hello"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCommentDeletePermissions(t *testing.T) {
	repo := newMockCommentRepo()
	blogs := &mockCounterRepo{blog: &models.Blog{ID: "b1", Status: models.BlogStatusPublished}}
	svc := NewCommentService(repo, blogs, nil, zap.NewNop())

	comment, err := svc.Create(context.Background(), "b1", "u1", CreateCommentRequest{Content: "mine"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), comment.ID, "intruder", models.RoleUser)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAuthorization.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), comment.ID, "u1", models.RoleUser))
	assert.Equal(t, 0, blogs.comments)

	err = svc.Delete(context.Background(), comment.ID, "u1", models.RoleUser)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
