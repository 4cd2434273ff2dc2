package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"campus-chatbot-backend/internal/logger"
)

// ExportService renders the knowledge base inventory as an Excel workbook so
// administrators can review what the chatbot is answering from.
type ExportService struct {
	store *KnowledgeStore
}

func NewExportService(store *KnowledgeStore) *ExportService {
	return &ExportService{store: store}
}

// ExportSources writes one row per ingested source with its chunk count and
// last ingestion time, and returns the workbook bytes.
func (es *ExportService) ExportSources(ctx context.Context) ([]byte, error) {
	summaries, err := es.store.SourceSummaries(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing Excel file", "error", err)
		}
	}()

	sheetName := "Knowledge Sources"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, newDependencyError("export", err, "failed to create sheet")
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Source Type", "Source Name", "Source URL", "Chunk Count", "Last Ingested"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, s := range summaries {
		row := rowIdx + 2 // after headers

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), s.SourceType)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), s.SourceName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), s.SourceURL)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), s.ChunkCount)
		if !s.LastIngested.IsZero() {
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), s.LastIngested.Format("2006-01-02 15:04:05"))
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, newDependencyError("export", err, "failed to write workbook")
	}

	logger.Info("Knowledge export generated", "sources", len(summaries), "bytes", buf.Len())
	return buf.Bytes(), nil
}
