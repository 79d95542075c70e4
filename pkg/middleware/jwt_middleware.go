package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"socrat/internal/config"
	"socrat/internal/remote"
	"socrat/pkg/utils"
)

const ContextUserID = "user_id"

// JWTAuthMiddleware validates the learner token and forwards it on the request
// context so calls to the quiz service carry the same bearer.
func JWTAuthMiddleware(cfg config.Config) gin.HandlerFunc {
	secret := []byte(cfg.JWTSecret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, "Authorization header missing or invalid")
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.LearnerID())
		c.Request = c.Request.WithContext(remote.WithBearer(c.Request.Context(), tokenString))
		c.Next()
	}
}
