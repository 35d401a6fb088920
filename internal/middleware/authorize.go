package middleware

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/blog-api/internal/models"
	appErrors "github.com/noah-isme/blog-api/pkg/errors"
	"github.com/noah-isme/blog-api/pkg/response"
)

type roleLookup interface {
	GetRole(ctx context.Context, userID string) (models.UserRole, error)
}

// RequireRole allows the request through only when the stored role of the
// authenticated user is one of the given roles. The role comes from the
// store on every request so a demotion takes effect before the access token
// expires.
func RequireRole(users roleLookup, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrAuthorization, "access denied, insufficient permission"))
			c.Abort()
			return
		}

		role, err := users.GetRole(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.Clone(appErrors.ErrAuthorization, "access denied, insufficient permission"))
			} else {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to resolve role"))
			}
			c.Abort()
			return
		}

		if _, ok := allowed[role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrAuthorization, "access denied, insufficient permission"))
			c.Abort()
			return
		}

		c.Set(ContextRoleKey, role)
		c.Next()
	}
}
