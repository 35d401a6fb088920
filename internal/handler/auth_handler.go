package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/blog-api/internal/models"
	"github.com/noah-isme/blog-api/internal/service"
	"github.com/noah-isme/blog-api/pkg/config"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
	"github.com/noah-isme/blog-api/pkg/response"
)

const refreshCookieName = "refreshToken"

// AuthHandler wires the session endpoints to the auth service. The refresh
// token travels exclusively as an HTTP-only cookie.
type AuthHandler struct {
	service       *service.AuthService
	env           string
	refreshMaxAge int
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		service:       svc,
		env:           cfg.Env,
		refreshMaxAge: int(cfg.JWT.RefreshExpiry.Seconds()),
	}
}

// Register godoc
// @Summary Register a new user
// @Description Create an account and establish a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Register payload"
// @Success 201 {object} models.Session
// @Failure 400 {object} errors.Error
// @Failure 403 {object} errors.Error
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid register payload"))
		return
	}

	session, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	response.Created(c, session)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} models.Session
// @Failure 401 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	session, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	response.JSON(c, http.StatusOK, session)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange the refresh token cookie for a new access token
// @Tags Authentication
// @Produce json
// @Success 200 {object} models.RefreshResponse
// @Failure 401 {object} errors.Error
// @Router /auth/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshCookieName)

	res, err := h.service.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the refresh token and clear its cookie
// @Tags Authentication
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshCookieName)

	if err := h.service.Logout(c.Request.Context(), refreshToken); err != nil {
		response.Error(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.NoContent(c)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, h.refreshMaxAge, "/", "", h.env == config.EnvProduction, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", h.env == config.EnvProduction, true)
}
