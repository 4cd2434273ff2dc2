package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campus-chatbot-backend/internal/auth"
	"campus-chatbot-backend/internal/config"
	"campus-chatbot-backend/internal/logger"
	"campus-chatbot-backend/utils"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SetupAuthRoutes registers the admin login endpoint. There is a single
// admin identity, configured via environment.
func SetupAuthRoutes(router *gin.Engine, cfg *config.Config) {
	router.POST("/api/auth/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Username and password are required", nil)
			return
		}

		if cfg.AdminPasswordHash == "" {
			utils.RespondWithUnauthorized(c, "Admin login is not configured")
			return
		}

		if req.Username != cfg.AdminUsername || !auth.CheckPassword(req.Password, cfg.AdminPasswordHash) {
			logger.Warn("Failed admin login", "username", req.Username, "ip", c.ClientIP())
			utils.RespondWithUnauthorized(c, "Invalid credentials")
			return
		}

		expiresIn, err := time.ParseDuration(cfg.JWTExpiresIn)
		if err != nil {
			expiresIn = 24 * time.Hour
		}

		token, err := auth.GenerateJWT(req.Username, "admin", cfg.JWTSecret, expiresIn)
		if err != nil {
			utils.RespondWithInternalError(c, "Could not issue token", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_in": int(expiresIn.Seconds()),
		})
	})
}
