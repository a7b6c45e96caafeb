package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/sales_report_backend/config"
	"github.com/mmdatafocus/sales_report_backend/utils"
)

// SessionUser is what the login service stores under "Token:<token>".
type SessionUser struct {
	UserId     int    `json:"user_id"`
	Username   string `json:"username"`
	BusinessId string `json:"business_id"`
}

// SessionMiddleware resolves the opaque "token" header against Redis.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		var user SessionUser
		exists, err := config.GetRedisObject(c.Request.Context(), "Token:"+token, &user)
		if err != nil || !exists || user.Username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetUsernameInContext(c.Request.Context(), user.Username)
		ctx = utils.SetUserIdInContext(ctx, user.UserId)
		if user.BusinessId != "" {
			ctx = utils.SetBusinessIdInContext(ctx, user.BusinessId)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
