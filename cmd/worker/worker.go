package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"campus-chatbot-backend/internal/ai"
	"campus-chatbot-backend/internal/config"
	"campus-chatbot-backend/internal/logger"
	"campus-chatbot-backend/internal/queue"
	"campus-chatbot-backend/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	ctx := context.Background()

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(disconnectCtx)
	}()

	embedProvider, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini embedder:", err)
	}
	defer embedProvider.Close()

	col := mongoClient.Database(cfg.DBName).Collection(cfg.KnowledgeCollection)

	embedder := ai.NewEmbeddingClient(cfg.EmbeddingModel, cfg.VectorDim, cfg.EmbedBatchSize, embedProvider.EmbedFunc())
	store := services.NewKnowledgeStore(col)
	chunker := services.NewChunker(cfg)
	ingestor := services.NewIngestor(chunker, embedder, store)
	pdfExtractor := services.NewPDFExtractor(time.Duration(cfg.PDFPageTimeoutSeconds) * time.Second)

	connOpt, err := queue.RedisConnOpt(cfg)
	if err != nil {
		log.Fatal("Invalid Redis config:", err)
	}

	server := asynq.NewServer(
		connOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"ingestion": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(ingestor, pdfExtractor, 60*time.Second)

	mux := asynq.NewServeMux()
	processor.Register(mux)

	logger.Info("Starting ingestion worker", "redis", cfg.RedisURL)
	if err := server.Run(mux); err != nil {
		log.Fatal("Worker stopped:", err)
	}
}
