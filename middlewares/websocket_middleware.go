package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// WebSocketAuthMiddleware identifies observers. Browsers cannot set headers on
// a websocket handshake, so the token may also come as ?token=. Customer
// devices connect without one and are tagged as guests; a bad token is still
// rejected.
func WebSocketAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			c.Set(ContextRole, RoleGuest)
			c.Next()
			return
		}

		claims, err := utils.ParseToken(secret, token)
		if err != nil {
			utils.AbortWithError(c, utils.ErrUnauthorized("invalid or expired token"))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
