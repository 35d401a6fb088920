package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/blog-api/internal/models"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
	"github.com/noah-isme/blog-api/pkg/export"
)

type exportBlogRepository interface {
	ListForExport(ctx context.Context) ([]models.Blog, error)
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the blog inventory into downloadable formats.
type ExportService struct {
	blogs  exportBlogRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(blogs exportBlogRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		blogs:  blogs,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

var exportHeaders = []string{"Title", "Slug", "Author", "Status", "Likes", "Comments", "Created At"}

// Inventory renders all blog posts as csv or pdf.
func (s *ExportService) Inventory(ctx context.Context, format string) (*ExportFile, error) {
	blogs, err := s.blogs.ListForExport(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to load blogs")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(blogs))}
	for _, blog := range blogs {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Title":      blog.Title,
			"Slug":       blog.Slug,
			"Author":     blog.AuthorUsername,
			"Status":     string(blog.Status),
			"Likes":      strconv.Itoa(blog.LikesCount),
			"Comments":   strconv.Itoa(blog.CommentsCount),
			"Created At": blog.CreatedAt.Format(time.RFC3339),
		})
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case "csv", "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("blogs-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, "Blog Inventory")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("blogs-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "unsupported export format")
	}
}
