package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/blog-api/internal/middleware"
	"github.com/noah-isme/blog-api/internal/service"
	"github.com/noah-isme/blog-api/pkg/response"
)

// LikeHandler wires like endpoints to the like service.
type LikeHandler struct {
	service *service.LikeService
}

// NewLikeHandler creates a new handler.
func NewLikeHandler(svc *service.LikeService) *LikeHandler {
	return &LikeHandler{service: svc}
}

// Like godoc
// @Summary Like a blog post
// @Tags Likes
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog ID"
// @Success 200 {object} service.LikeResult
// @Failure 400 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /likes/blog/{blogId} [post]
func (h *LikeHandler) Like(c *gin.Context) {
	res, err := h.service.Like(c.Request.Context(), c.Param("blogId"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Unlike godoc
// @Summary Remove a like from a blog post
// @Tags Likes
// @Security BearerAuth
// @Param blogId path string true "Blog ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Router /likes/blog/{blogId} [delete]
func (h *LikeHandler) Unlike(c *gin.Context) {
	if _, err := h.service.Unlike(c.Request.Context(), c.Param("blogId"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
