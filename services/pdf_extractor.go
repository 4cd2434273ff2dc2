package services

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"campus-chatbot-backend/internal/logger"
)

// PDFExtractor reads the text of every page of a PDF. Each page is extracted
// under its own timeout: a page that hangs is abandoned and counted as empty
// so one malformed page cannot stall the whole document.
type PDFExtractor struct {
	pageTimeout time.Duration
}

func NewPDFExtractor(pageTimeout time.Duration) *PDFExtractor {
	if pageTimeout <= 0 {
		pageTimeout = 20 * time.Second
	}
	return &PDFExtractor{pageTimeout: pageTimeout}
}

// ExtractText returns the concatenated page texts and the page count.
func (e *PDFExtractor) ExtractText(ctx context.Context, content []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, newValidationError("ingestion", "unreadable PDF: %v", err)
	}

	pages := reader.NumPage()
	var b strings.Builder

	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", pages, newDependencyError("ingestion", err, "extraction cancelled at page %d", i)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text := extractWithTimeout(ctx, e.pageTimeout, func() (string, error) {
			fonts := make(map[string]*pdf.Font)
			return page.GetPlainText(fonts)
		})
		if text == "" {
			continue
		}

		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	return b.String(), pages, nil
}

// extractWithTimeout runs fn in its own goroutine and gives up after the
// timeout, returning "" for the abandoned page. The goroutine is left to
// finish on its own; ledongthuc/pdf has no cancellation hook.
func extractWithTimeout(ctx context.Context, timeout time.Duration, fn func() (string, error)) string {
	type pageResult struct {
		text string
		err  error
	}
	done := make(chan pageResult, 1)

	go func() {
		text, err := fn()
		done <- pageResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			logger.Warn("Page extraction failed", "error", res.err)
			return ""
		}
		return res.text
	case <-time.After(timeout):
		logger.Warn("Page extraction timed out", "timeout", timeout)
		return ""
	case <-ctx.Done():
		return ""
	}
}
