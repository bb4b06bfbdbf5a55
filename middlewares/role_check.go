package middlewares

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// RequireRoles is the capability check: it lets the request through only when
// the authenticated role is one of roles. It must run after AuthMiddleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(r)] = true
	}

	return func(c *gin.Context) {
		role, ok := c.Get(ContextRole)
		if !ok {
			utils.AbortWithError(c, utils.ErrUnauthorized("unauthorized"))
			return
		}

		roleStr, _ := role.(string)
		if !allowed[strings.ToLower(roleStr)] {
			utils.AbortWithError(c, utils.ErrPermissionDenied(
				fmt.Sprintf("role %q may not perform this action, requires one of: %s", roleStr, strings.Join(roles, ", ")),
			))
			return
		}
		c.Next()
	}
}
