package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campus-chatbot-backend/models"
	"campus-chatbot-backend/services"
	"campus-chatbot-backend/utils"
)

// SetupSourceRoutes registers the admin endpoints for inspecting and pruning
// the knowledge base.
func SetupSourceRoutes(router *gin.Engine, store *services.KnowledgeStore,
	exporter *services.ExportService, requireAuth gin.HandlerFunc) {

	api := router.Group("/api")
	api.Use(requireAuth)

	api.GET("/sources", func(c *gin.Context) {
		summaries, err := store.SourceSummaries(c.Request.Context())
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sources": summaries, "count": len(summaries)})
	})

	api.DELETE("/sources", func(c *gin.Context) {
		var req models.DeleteSourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		deleted, err := store.DeleteBySource(c.Request.Context(), req.SourceType, req.SourceName, req.SourceURL)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}
		if deleted == 0 {
			utils.RespondWithNotFound(c, "No chunks matched the given source")
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
	})

	api.GET("/export", func(c *gin.Context) {
		workbook, err := exporter.ExportSources(c.Request.Context())
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		filename := fmt.Sprintf("knowledge-sources-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
	})
}
