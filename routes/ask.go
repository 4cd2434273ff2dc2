package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-chatbot-backend/models"
	"campus-chatbot-backend/services"
	"campus-chatbot-backend/utils"
)

// SetupAskRoutes registers the public question-answering endpoint.
func SetupAskRoutes(router *gin.Engine, query *services.QueryService) {
	router.POST("/api/ask", func(c *gin.Context) {
		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		resp, err := query.Answer(c.Request.Context(), req.Query)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	})
}
