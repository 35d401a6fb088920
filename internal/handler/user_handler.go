package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/blog-api/internal/middleware"
	"github.com/noah-isme/blog-api/internal/models"
	"github.com/noah-isme/blog-api/internal/service"
	"github.com/noah-isme/blog-api/pkg/config"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
	"github.com/noah-isme/blog-api/pkg/response"
)

// UserHandler wires user profile endpoints to the user service.
type UserHandler struct {
	service *service.UserService
	listing config.ListingConfig
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc *service.UserService, listing config.ListingConfig) *UserHandler {
	return &UserHandler{service: svc, listing: listing}
}

// GetCurrent godoc
// @Summary Get current user
// @Description Return the authenticated user's profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} errors.Error
// @Router /users/current [get]
func (h *UserHandler) GetCurrent(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// UpdateCurrent godoc
// @Summary Update current user
// @Description Update the authenticated user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateUserRequest true "Profile changes"
// @Success 200 {object} models.User
// @Failure 400 {object} errors.Error
// @Router /users/current [put]
func (h *UserHandler) UpdateCurrent(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	user, err := h.service.UpdateCurrent(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// DeleteCurrent godoc
// @Summary Delete current user
// @Description Remove the authenticated user's account and all their posts
// @Tags Users
// @Security BearerAuth
// @Success 204
// @Router /users/current [delete]
func (h *UserHandler) DeleteCurrent(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get user by id
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} errors.Error
// @Router /users/{userId} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// List godoc
// @Summary List users
// @Description Admin listing of all users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.Error
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	limit, offset := pageParams(c, h.listing)

	users, total, err := h.service.List(c.Request.Context(), models.UserFilter{Limit: limit, Offset: offset})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"users": users,
		"meta":  models.ListMeta{Limit: limit, Offset: offset, Total: total},
	})
}

// Delete godoc
// @Summary Delete user by id
// @Description Admin removal of a user account
// @Tags Users
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Router /users/{userId} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
