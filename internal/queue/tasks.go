package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"campus-chatbot-backend/internal/crawler"
	"campus-chatbot-backend/internal/logger"
	"campus-chatbot-backend/models"
	"campus-chatbot-backend/services"
)

const (
	TaskIngestPDF = "ingest:pdf"
	TaskIngestURL = "ingest:url"
)

// PDFIngestPayload references an uploaded file spooled to disk; the payload
// stays small and the worker reads the bytes itself.
type PDFIngestPayload struct {
	FilePath   string `json:"file_path"`
	SourceName string `json:"source_name"`
}

type URLIngestPayload struct {
	URL        string `json:"url"`
	SourceName string `json:"source_name"`
	RenderJS   bool   `json:"render_js"`
}

func NewPDFIngestTask(filePath, sourceName string) (*asynq.Task, error) {
	payload, err := json.Marshal(PDFIngestPayload{
		FilePath:   filePath,
		SourceName: sourceName,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestPDF,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("ingestion"),
	), nil
}

func NewURLIngestTask(url, sourceName string, renderJS bool) (*asynq.Task, error) {
	payload, err := json.Marshal(URLIngestPayload{
		URL:        url,
		SourceName: sourceName,
		RenderJS:   renderJS,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestURL,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("ingestion"),
	), nil
}

// TaskProcessor runs ingestion jobs on the worker.
type TaskProcessor struct {
	ingestor     *services.Ingestor
	pdfExtractor *services.PDFExtractor
	scrapeWindow time.Duration
}

func NewTaskProcessor(ingestor *services.Ingestor, pdfExtractor *services.PDFExtractor, scrapeWindow time.Duration) *TaskProcessor {
	return &TaskProcessor{
		ingestor:     ingestor,
		pdfExtractor: pdfExtractor,
		scrapeWindow: scrapeWindow,
	}
}

// Register binds the task types to their handlers.
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskIngestPDF, p.ProcessPDF)
	mux.HandleFunc(TaskIngestURL, p.ProcessURL)
}

func (p *TaskProcessor) ProcessPDF(ctx context.Context, t *asynq.Task) error {
	var payload PDFIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Worker ingesting PDF", "file", payload.FilePath, "source", payload.SourceName)

	content, err := os.ReadFile(payload.FilePath)
	if err != nil {
		// The spooled file is gone; retrying will not bring it back.
		return fmt.Errorf("reading spooled upload: %v: %w", err, asynq.SkipRetry)
	}

	text, pages, err := p.pdfExtractor.ExtractText(ctx, content)
	if err != nil {
		if services.CategoryOf(err) == services.CategoryValidation {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	res, err := p.ingestor.Ingest(ctx, text, models.SourceTypePDF, payload.SourceName, "")
	if err != nil {
		if services.CategoryOf(err) == services.CategoryValidation {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	// Only remove the spooled file once the document is fully ingested.
	if err := os.Remove(payload.FilePath); err != nil {
		logger.Warn("Could not remove spooled upload", "file", payload.FilePath, "error", err)
	}

	logger.Info("Worker ingested PDF", "source", payload.SourceName, "pages", pages, "chunks", res.ChunksCreated)
	return nil
}

func (p *TaskProcessor) ProcessURL(ctx context.Context, t *asynq.Task) error {
	var payload URLIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Worker ingesting URL", "url", payload.URL, "source", payload.SourceName)

	page, err := crawler.Scrape(ctx, crawler.ScrapeConfig{
		URL:      payload.URL,
		Timeout:  p.scrapeWindow,
		RenderJS: payload.RenderJS,
	})
	if err != nil {
		return err
	}

	sourceName := payload.SourceName
	if sourceName == "" {
		sourceName = page.Title
	}
	if sourceName == "" {
		sourceName = page.URL
	}

	res, err := p.ingestor.Ingest(ctx, page.Text, models.SourceTypeWebsite, sourceName, page.URL)
	if err != nil {
		if services.CategoryOf(err) == services.CategoryValidation {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	logger.Info("Worker ingested URL", "url", page.URL, "chunks", res.ChunksCreated)
	return nil
}
