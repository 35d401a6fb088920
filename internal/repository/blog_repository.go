package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/blog-api/internal/models"
)

const blogColumns = `b.id, b.title, b.slug, b.content, b.banner_path, b.status, b.author_id, u.username AS author_username, b.likes_count, b.comments_count, b.created_at, b.updated_at`

// BlogRepository provides database access for blog posts.
type BlogRepository struct {
	db *sqlx.DB
}

// NewBlogRepository creates a new instance of BlogRepository.
func NewBlogRepository(db *sqlx.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

// Create inserts a new blog post.
func (r *BlogRepository) Create(ctx context.Context, blog *models.Blog) error {
	if blog.ID == "" {
		blog.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = now
	}
	blog.UpdatedAt = now

	const query = `INSERT INTO blogs (id, title, slug, content, banner_path, status, author_id, likes_count, comments_count, created_at, updated_at) VALUES (:id, :title, :slug, :content, :banner_path, :status, :author_id, :likes_count, :comments_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, blog); err != nil {
		return fmt.Errorf("create blog: %w", err)
	}
	return nil
}

// FindByID returns a blog post with its author username.
func (r *BlogRepository) FindByID(ctx context.Context, id string) (*models.Blog, error) {
	query := fmt.Sprintf(`SELECT %s FROM blogs b JOIN users u ON u.id = b.author_id WHERE b.id = $1 LIMIT 1`, blogColumns)
	var blog models.Blog
	if err := r.db.GetContext(ctx, &blog, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find blog by id: %w", err)
	}
	return &blog, nil
}

// FindBySlug returns a blog post by its slug.
func (r *BlogRepository) FindBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	query := fmt.Sprintf(`SELECT %s FROM blogs b JOIN users u ON u.id = b.author_id WHERE b.slug = $1 LIMIT 1`, blogColumns)
	var blog models.Blog
	if err := r.db.GetContext(ctx, &blog, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find blog by slug: %w", err)
	}
	return &blog, nil
}

// SlugExists reports whether a slug is already taken.
func (r *BlogRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM blogs WHERE slug = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug); err != nil {
		return false, fmt.Errorf("check slug exists: %w", err)
	}
	return exists, nil
}

// List returns blog posts matching the filter, newest first, with total count.
func (r *BlogRepository) List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error) {
	baseQuery := `FROM blogs b JOIN users u ON u.id = b.author_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("b.author_id = $%d", len(args)+1))
		args = append(args, filter.AuthorID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY b.created_at DESC LIMIT %d OFFSET %d", blogColumns, baseQuery, filter.Limit, filter.Offset)

	var blogs []models.Blog
	if err := r.db.SelectContext(ctx, &blogs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}
	return blogs, total, nil
}

// Update updates mutable fields of a blog post.
func (r *BlogRepository) Update(ctx context.Context, blog *models.Blog) error {
	blog.UpdatedAt = time.Now().UTC()
	const query = `UPDATE blogs SET title = :title, slug = :slug, content = :content, banner_path = :banner_path, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, blog); err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	return nil
}

// Delete removes a blog post together with its comments and likes.
func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM blogs WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	return nil
}

// IncrementLikes adjusts the denormalized likes counter and returns the new
// value. Delta may be negative.
func (r *BlogRepository) IncrementLikes(ctx context.Context, id string, delta int) (int, error) {
	const query = `UPDATE blogs SET likes_count = GREATEST(likes_count + $2, 0) WHERE id = $1 RETURNING likes_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id, delta); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("increment likes: %w", err)
	}
	return count, nil
}

// IncrementComments adjusts the denormalized comments counter and returns the
// new value. Delta may be negative.
func (r *BlogRepository) IncrementComments(ctx context.Context, id string, delta int) (int, error) {
	const query = `UPDATE blogs SET comments_count = GREATEST(comments_count + $2, 0) WHERE id = $1 RETURNING comments_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id, delta); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("increment comments: %w", err)
	}
	return count, nil
}

// ListBannerPathsByAuthor returns the stored banner paths of an author's
// posts so their files can be cleaned up when the account is removed.
func (r *BlogRepository) ListBannerPathsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	const query = `SELECT banner_path FROM blogs WHERE author_id = $1 AND banner_path <> ''`
	var paths []string
	if err := r.db.SelectContext(ctx, &paths, query, authorID); err != nil {
		return nil, fmt.Errorf("list banner paths: %w", err)
	}
	return paths, nil
}

// DeleteByAuthor removes every blog post owned by the given author.
func (r *BlogRepository) DeleteByAuthor(ctx context.Context, authorID string) error {
	const query = `DELETE FROM blogs WHERE author_id = $1`
	if _, err := r.db.ExecContext(ctx, query, authorID); err != nil {
		return fmt.Errorf("delete blogs by author: %w", err)
	}
	return nil
}

// ListForExport returns all blog posts with author usernames for inventory
// exports, oldest first.
func (r *BlogRepository) ListForExport(ctx context.Context) ([]models.Blog, error) {
	query := fmt.Sprintf(`SELECT %s FROM blogs b JOIN users u ON u.id = b.author_id ORDER BY b.created_at ASC`, blogColumns)
	var blogs []models.Blog
	if err := r.db.SelectContext(ctx, &blogs, query); err != nil {
		return nil, fmt.Errorf("list blogs for export: %w", err)
	}
	return blogs, nil
}
