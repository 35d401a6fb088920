package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/blog-api/internal/models"
)

func blogRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "slug", "content", "banner_path", "status", "author_id", "author_username", "likes_count", "comments_count", "created_at", "updated_at"}).
		AddRow("b1", "Hello", "hello", "text", "banners/hello.png", string(models.BlogStatusPublished), "u1", "user-abc", 3, 1, now, now)
}

func TestFindBySlug(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBlogRepository(db)

	query := fmt.Sprintf("SELECT %s FROM blogs b JOIN users u ON u.id = b.author_id WHERE b.slug = $1 LIMIT 1", blogColumns)
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("hello").
		WillReturnRows(blogRows(time.Now()))

	blog, err := repo.FindBySlug(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", blog.Slug)
	assert.Equal(t, "user-abc", blog.AuthorUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBlogRepository(db)

	mock.ExpectQuery("SELECT .* FROM blogs").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListBlogsWithStatusFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBlogRepository(db)

	listQuery := fmt.Sprintf("SELECT %s FROM blogs b JOIN users u ON u.id = b.author_id WHERE 1=1 AND b.status = $1 ORDER BY b.created_at DESC LIMIT 20 OFFSET 0", blogColumns)
	mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
		WithArgs(models.BlogStatusPublished).
		WillReturnRows(blogRows(time.Now()))

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM blogs b JOIN users u ON u.id = b.author_id WHERE 1=1 AND b.status = $1")).
		WithArgs(models.BlogStatusPublished).
		WillReturnRows(countRows)

	published := models.BlogStatusPublished
	blogs, total, err := repo.List(context.Background(), models.BlogFilter{Status: &published, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, blogs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementLikes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBlogRepository(db)

	rows := sqlmock.NewRows([]string{"likes_count"}).AddRow(4)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE blogs SET likes_count = GREATEST(likes_count + $2, 0) WHERE id = $1 RETURNING likes_count")).
		WithArgs("b1", 1).
		WillReturnRows(rows)

	count, err := repo.IncrementLikes(context.Background(), "b1", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBlog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBlogRepository(db)

	mock.ExpectExec("INSERT INTO blogs").WillReturnResult(sqlmock.NewResult(1, 1))

	blog := &models.Blog{Title: "Hello", Slug: "hello", Content: "text", BannerPath: "banners/hello.png", Status: models.BlogStatusDraft, AuthorID: "u1"}
	err := repo.Create(context.Background(), blog)
	require.NoError(t, err)
	assert.NotEmpty(t, blog.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBannerPathsByAuthor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBlogRepository(db)

	rows := sqlmock.NewRows([]string{"banner_path"}).AddRow("banners/a.png").AddRow("banners/b.png")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT banner_path FROM blogs WHERE author_id = $1 AND banner_path <> ''")).
		WithArgs("u1").
		WillReturnRows(rows)

	paths, err := repo.ListBannerPathsByAuthor(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"banners/a.png", "banners/b.png"}, paths)
}
