package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// Context keys set by the auth middlewares.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// RoleGuest is the role of an unauthenticated websocket observer.
const RoleGuest = "guest"

func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.AbortWithError(c, utils.ErrUnauthorized("authorization header missing"))
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.AbortWithError(c, utils.ErrUnauthorized("authorization header must use the Bearer scheme"))
			return
		}

		claims, err := utils.ParseToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			utils.AbortWithError(c, utils.ErrUnauthorized("invalid or expired token"))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
