package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/blog-api/internal/middleware"
	"github.com/noah-isme/blog-api/internal/models"
	"github.com/noah-isme/blog-api/internal/service"
	"github.com/noah-isme/blog-api/pkg/config"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
	"github.com/noah-isme/blog-api/pkg/response"
)

// BlogHandler wires blog endpoints to the blog and export services.
type BlogHandler struct {
	service *service.BlogService
	export  *service.ExportService
	listing config.ListingConfig
}

// NewBlogHandler creates a new handler.
func NewBlogHandler(svc *service.BlogService, exportSvc *service.ExportService, listing config.ListingConfig) *BlogHandler {
	return &BlogHandler{service: svc, export: exportSvc, listing: listing}
}

// Create godoc
// @Summary Create blog post
// @Description Create a post, optionally with a banner image, multipart encoded
// @Tags Blogs
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param status formData string false "draft or published"
// @Param banner_image formData file false "Banner image"
// @Success 201 {object} models.Blog
// @Failure 400 {object} errors.Error
// @Failure 403 {object} errors.Error
// @Router /blogs [post]
func (h *BlogHandler) Create(c *gin.Context) {
	req := service.CreateBlogRequest{
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
		Status:  models.BlogStatus(c.PostForm("status")),
	}

	banner, err := optionalBanner(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	blog, err := h.service.Create(c.Request.Context(), middleware.UserID(c), req, banner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, blog)
}

// List godoc
// @Summary List blog posts
// @Tags Blogs
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Param status query string false "Filter by status, admin only"
// @Success 200 {object} map[string]interface{}
// @Router /blogs [get]
func (h *BlogHandler) List(c *gin.Context) {
	h.list(c, "")
}

// ListByUser godoc
// @Summary List blog posts by author
// @Tags Blogs
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Author ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Router /blogs/user/{userId} [get]
func (h *BlogHandler) ListByUser(c *gin.Context) {
	h.list(c, c.Param("userId"))
}

func (h *BlogHandler) list(c *gin.Context, authorID string) {
	limit, offset := pageParams(c, h.listing)
	filter := models.BlogFilter{AuthorID: authorID, Limit: limit, Offset: offset}

	if raw := c.Query("status"); raw != "" {
		status := models.BlogStatus(raw)
		if status != models.BlogStatusDraft && status != models.BlogStatusPublished {
			response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid status filter"))
			return
		}
		filter.Status = &status
	}

	blogs, total, err := h.service.List(c.Request.Context(), filter, middleware.UserID(c), middleware.Role(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"blogs": blogs,
		"meta":  models.ListMeta{Limit: limit, Offset: offset, Total: total},
	})
}

// GetBySlug godoc
// @Summary Get blog post by slug
// @Tags Blogs
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug"
// @Success 200 {object} models.Blog
// @Failure 403 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /blogs/{slug} [get]
func (h *BlogHandler) GetBySlug(c *gin.Context) {
	blog, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blog)
}

// Update godoc
// @Summary Update blog post
// @Description Update a post, optionally replacing its banner image
// @Tags Blogs
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog ID"
// @Success 200 {object} models.Blog
// @Failure 403 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /blogs/{blogId} [put]
func (h *BlogHandler) Update(c *gin.Context) {
	req := service.UpdateBlogRequest{
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
		Status:  models.BlogStatus(c.PostForm("status")),
	}

	banner, err := optionalBanner(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	blog, err := h.service.Update(c.Request.Context(), c.Param("blogId"), middleware.UserID(c), middleware.Role(c), req, banner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blog)
}

// Delete godoc
// @Summary Delete blog post
// @Tags Blogs
// @Security BearerAuth
// @Param blogId path string true "Blog ID"
// @Success 204
// @Failure 403 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /blogs/{blogId} [delete]
func (h *BlogHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("blogId"), middleware.UserID(c), middleware.Role(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export blog inventory
// @Description Download all posts as csv or pdf
// @Tags Blogs
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 403 {object} errors.Error
// @Router /blogs/export [get]
func (h *BlogHandler) Export(c *gin.Context) {
	file, err := h.export.Inventory(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// DownloadBanner godoc
// @Summary Download banner image
// @Description Serve a banner file referenced by a signed token
// @Tags Blogs
// @Produce octet-stream
// @Param token path string true "Signed banner token"
// @Success 200 {file} binary
// @Failure 401 {object} errors.Error
// @Router /banners/{token} [get]
func (h *BlogHandler) DownloadBanner(c *gin.Context) {
	path, err := h.service.BannerFilePath(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(path)
}

func optionalBanner(c *gin.Context) (*service.BannerUpload, error) {
	header, err := c.FormFile("banner_image")
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid banner upload")
	}
	return bannerFromHeader(header)
}

func bannerFromHeader(header *multipart.FileHeader) (*service.BannerUpload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to open banner upload")
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to read banner upload")
	}

	return &service.BannerUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
