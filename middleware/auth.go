package middleware

import (
	"github.com/gin-gonic/gin"

	"campus-chatbot-backend/internal/auth"
	"campus-chatbot-backend/internal/config"
	"campus-chatbot-backend/utils"
)

// RequireAuth guards the admin surface: every request needs a valid bearer
// token issued by the login endpoint.
func RequireAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString == "" {
			utils.RespondWithUnauthorized(c, "Authentication token is required")
			c.Abort()
			return
		}

		claims, err := auth.ValidateJWT(tokenString, cfg.JWTSecret)
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}
