package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/blog-api/internal/middleware"
	"github.com/noah-isme/blog-api/internal/service"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
	"github.com/noah-isme/blog-api/pkg/response"
)

// CommentHandler wires comment endpoints to the comment service.
type CommentHandler struct {
	service *service.CommentService
}

// NewCommentHandler creates a new handler.
func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{service: svc}
}

// Create godoc
// @Summary Comment on a blog post
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog ID"
// @Param payload body service.CreateCommentRequest true "Comment body"
// @Success 201 {object} models.Comment
// @Failure 404 {object} errors.Error
// @Router /comments/blog/{blogId} [post]
func (h *CommentHandler) Create(c *gin.Context) {
	var req service.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	comment, err := h.service.Create(c.Request.Context(), c.Param("blogId"), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// ListByBlog godoc
// @Summary List comments on a blog post
// @Tags Comments
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} errors.Error
// @Router /comments/blog/{blogId} [get]
func (h *CommentHandler) ListByBlog(c *gin.Context) {
	comments, err := h.service.ListByBlog(c.Request.Context(), c.Param("blogId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments)
}

// Delete godoc
// @Summary Delete a comment
// @Description Remove a comment, allowed for its author or an admin
// @Tags Comments
// @Security BearerAuth
// @Param commentId path string true "Comment ID"
// @Success 204
// @Failure 403 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /comments/{commentId} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("commentId"), middleware.UserID(c), middleware.Role(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
