package routes

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"campus-chatbot-backend/internal/config"
	"campus-chatbot-backend/internal/crawler"
	"campus-chatbot-backend/internal/logger"
	"campus-chatbot-backend/internal/queue"
	"campus-chatbot-backend/models"
	"campus-chatbot-backend/services"
	"campus-chatbot-backend/utils"
)

// SetupIngestRoutes registers the admin-only ingestion endpoints. asynqClient
// may be nil, in which case async requests are rejected.
func SetupIngestRoutes(router *gin.Engine, cfg *config.Config,
	ingestor *services.Ingestor, pdfExtractor *services.PDFExtractor,
	asynqClient *asynq.Client, requireAuth gin.HandlerFunc) {

	api := router.Group("/api")
	api.Use(requireAuth)

	api.POST("/upload_pdf", func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "A PDF file is required in the 'file' field", nil)
			return
		}

		if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
			utils.RespondWithBadRequest(c, "Only PDF files are accepted", gin.H{"filename": fileHeader.Filename})
			return
		}
		if fileHeader.Size > cfg.MaxFileSize {
			utils.RespondWithBadRequest(c, "File exceeds the maximum upload size",
				gin.H{"size": fileHeader.Size, "max_size": cfg.MaxFileSize})
			return
		}

		sourceName := c.PostForm("source_name")
		if sourceName == "" {
			sourceName = fileHeader.Filename
		}

		file, err := fileHeader.Open()
		if err != nil {
			utils.RespondWithInternalError(c, "Could not read uploaded file", nil)
			return
		}
		defer file.Close()

		if c.PostForm("async") == "true" {
			if asynqClient == nil {
				utils.RespondWithBadRequest(c, "Async ingestion is not enabled", nil)
				return
			}
			spooled, err := spoolUpload(file, fileHeader.Filename)
			if err != nil {
				utils.RespondWithInternalError(c, "Could not spool uploaded file", nil)
				return
			}
			task, err := queue.NewPDFIngestTask(spooled, sourceName)
			if err != nil {
				utils.RespondWithInternalError(c, "Could not build ingestion task", nil)
				return
			}
			info, err := asynqClient.EnqueueContext(c.Request.Context(), task)
			if err != nil {
				os.Remove(spooled)
				utils.RespondWithInternalError(c, "Could not enqueue ingestion task", nil)
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "source_name": sourceName})
			return
		}

		content, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize+1))
		if err != nil {
			utils.RespondWithInternalError(c, "Could not read uploaded file", nil)
			return
		}

		text, pages, err := pdfExtractor.ExtractText(c.Request.Context(), content)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		res, err := ingestor.Ingest(c.Request.Context(), text, models.SourceTypePDF, sourceName, "")
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		logger.Info("PDF uploaded", "source", sourceName, "pages", pages, "chunks", res.ChunksCreated)
		c.JSON(http.StatusOK, res)
	})

	api.POST("/scrape_url", func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		normalized, err := crawler.NormalizeURL(req.URL)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid URL", gin.H{"error": err.Error()})
			return
		}

		if req.Async {
			if asynqClient == nil {
				utils.RespondWithBadRequest(c, "Async ingestion is not enabled", nil)
				return
			}
			task, err := queue.NewURLIngestTask(normalized, req.SourceName, req.RenderJS)
			if err != nil {
				utils.RespondWithInternalError(c, "Could not build ingestion task", nil)
				return
			}
			info, err := asynqClient.EnqueueContext(c.Request.Context(), task)
			if err != nil {
				utils.RespondWithInternalError(c, "Could not enqueue ingestion task", nil)
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "url": normalized})
			return
		}

		page, err := crawler.Scrape(c.Request.Context(), crawler.ScrapeConfig{
			URL:      normalized,
			RenderJS: req.RenderJS,
		})
		if err != nil {
			utils.RespondWithError(c, http.StatusBadGateway, "scrape_failed", err.Error(), gin.H{"url": normalized})
			return
		}

		sourceName := req.SourceName
		if sourceName == "" {
			sourceName = page.Title
		}
		if sourceName == "" {
			sourceName = normalized
		}

		res, err := ingestor.Ingest(c.Request.Context(), page.Text, models.SourceTypeWebsite, sourceName, page.URL)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		logger.Info("URL scraped", "url", page.URL, "chunks", res.ChunksCreated)
		c.JSON(http.StatusOK, res)
	})
}

// spoolUpload copies an async upload to a temp file the worker can read.
func spoolUpload(r io.Reader, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*-"+filepath.Base(filename))
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, r); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
