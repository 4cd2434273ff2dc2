package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"campus-chatbot-backend/internal/ai"
	"campus-chatbot-backend/internal/config"
	"campus-chatbot-backend/internal/crawler"
	"campus-chatbot-backend/internal/logger"
	"campus-chatbot-backend/internal/queue"
	"campus-chatbot-backend/internal/telemetry"
	"campus-chatbot-backend/middleware"
	"campus-chatbot-backend/models"
	"campus-chatbot-backend/routes"
	"campus-chatbot-backend/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	ctx := context.Background()

	if cfg.OTELEnabled {
		shutdownTracer, err := telemetry.InitTracer("campus-chatbot-backend", cfg.OTELEndpoint)
		if err != nil {
			logger.Warn("Tracer init failed, continuing without traces", "error", err)
		} else {
			defer shutdownTracer()
		}
		if err := telemetry.InitMetrics(); err != nil {
			logger.Warn("Metrics init failed, continuing without metrics", "error", err)
		}
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(disconnectCtx)
	}()

	// Redis is optional: without it the answer cache, rate limiting and
	// async ingestion are disabled, but the API still serves.
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache and async ingestion", "error", err)
		rdb = nil
	}

	embedProvider, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini embedder:", err)
	}
	defer embedProvider.Close()

	geminiClient, err := ai.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	col := mongoClient.Database(cfg.DBName).Collection(cfg.KnowledgeCollection)

	embedder := ai.NewEmbeddingClient(cfg.EmbeddingModel, cfg.VectorDim, cfg.EmbedBatchSize, embedProvider.EmbedFunc())
	store := services.NewKnowledgeStore(col)
	chunker := services.NewChunker(cfg)
	ingestor := services.NewIngestor(chunker, embedder, store)
	searchEngine := services.NewVectorSearchEngine(col, cfg)
	pdfExtractor := services.NewPDFExtractor(time.Duration(cfg.PDFPageTimeoutSeconds) * time.Second)
	exporter := services.NewExportService(store)

	var answerCache *services.AnswerCache
	if rdb != nil && cfg.AnswerCacheTTLSeconds > 0 {
		answerCache = services.NewAnswerCache(rdb, time.Duration(cfg.AnswerCacheTTLSeconds)*time.Second)
	}
	queryService := services.NewQueryService(embedder, searchEngine, geminiClient, cfg.KnowledgeCollection, answerCache)

	var asynqClient *asynq.Client
	if rdb != nil {
		connOpt, err := queue.RedisConnOpt(cfg)
		if err != nil {
			logger.Warn("Invalid Redis config, async ingestion disabled", "error", err)
		} else {
			asynqClient = asynq.NewClient(connOpt)
			defer asynqClient.Close()
		}
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	if cfg.OTELEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "healthy", "timestamp": time.Now()}

		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := mongoClient.Ping(pingCtx, nil); err != nil {
			status["status"] = "degraded"
			status["mongo"] = err.Error()
		}
		if rdb != nil {
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				status["redis"] = err.Error()
			}
		}

		code := http.StatusOK
		if status["status"] != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	requireAuth := middleware.RequireAuth(cfg)
	routes.SetupAuthRoutes(router, cfg)
	routes.SetupAskRoutes(router, queryService)
	routes.SetupIngestRoutes(router, cfg, ingestor, pdfExtractor, asynqClient, requireAuth)
	routes.SetupSourceRoutes(router, store, exporter, requireAuth)

	// Periodic re-scrape keeps website sources in sync with the live pages.
	if cfg.RescrapeIntervalHours > 0 {
		scheduler := crawler.NewScheduler()
		rescrape := func(ctx context.Context, url string) error {
			page, err := crawler.Scrape(ctx, crawler.ScrapeConfig{URL: url})
			if err != nil {
				return err
			}
			sourceName := page.Title
			if sourceName == "" {
				sourceName = page.URL
			}
			_, err = ingestor.Ingest(ctx, page.Text, models.SourceTypeWebsite, sourceName, page.URL)
			return err
		}
		interval := time.Duration(cfg.RescrapeIntervalHours) * time.Hour
		if err := scheduler.ScheduleRescrape(interval, store, rescrape); err != nil {
			logger.Error("Could not schedule re-scrape sweep", "error", err)
		} else {
			scheduler.Start()
			defer scheduler.Stop()
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
