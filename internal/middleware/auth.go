package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/blog-api/internal/models"
	"github.com/noah-isme/blog-api/internal/service"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
	"github.com/noah-isme/blog-api/pkg/response"
)

// Context keys for the authenticated identity.
const (
	ContextUserIDKey = "currentUserId"
	ContextRoleKey   = "currentUserRole"
)

type accessVerifier interface {
	VerifyAccessToken(token string) (string, error)
}

// Authenticate protects routes by requiring a valid Bearer access token and
// stores the subject user ID on the context.
func Authenticate(tokens accessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, unauthorized("access denied, no access token provided"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, unauthorized("access denied, no access token provided"))
			c.Abort()
			return
		}

		userID, err := tokens.VerifyAccessToken(parts[1])
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				response.Error(c, unauthorized("access token expired, please login again"))
			} else {
				response.Error(c, unauthorized("invalid access token"))
			}
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user ID from the context.
func UserID(c *gin.Context) string {
	id, _ := c.Get(ContextUserIDKey)
	s, _ := id.(string)
	return s
}

// Role returns the role resolved by RequireRole, empty if no role gate ran.
func Role(c *gin.Context) models.UserRole {
	role, _ := c.Get(ContextRoleKey)
	r, _ := role.(models.UserRole)
	return r
}

func unauthorized(message string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrAuthentication, message)
}
