package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"campus-chatbot-backend/internal/config"
)

const untitled = "Untitled"

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	firstSentenceRe = regexp.MustCompile(`^[^.!?]+[.!?]`)
)

// Chunker splits long text into overlapping bounded-length segments so each
// segment can be embedded and retrieved independently. Splitting prefers
// paragraph breaks, then line breaks, then sentence ends, then spaces, and
// only hard-cuts when a window has no separator at all.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	splitter     textsplitter.RecursiveCharacter
}

func NewChunker(cfg *config.Config) *Chunker {
	return NewChunkerWith(cfg.ChunkSize, cfg.ChunkOverlap, cfg.ChunkSeparators)
}

func NewChunkerWith(chunkSize, chunkOverlap int, separators []string) *Chunker {
	if len(separators) == 0 {
		separators = []string{"\n\n", "\n", ". ", " "}
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(separators),
	)
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   separators,
		splitter:     splitter,
	}
}

// ChunkText splits text into segments of at most the configured chunk size
// with the configured overlap between consecutive segments.
func (c *Chunker) ChunkText(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newValidationError("chunking", "cannot chunk empty text")
	}

	chunks, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, newDependencyError("chunking", err, "text splitting failed")
	}

	// Should not happen for non-empty input, but the contract requires it.
	if len(chunks) == 0 {
		return nil, newValidationError("chunking", "no chunks generated from text")
	}

	return chunks, nil
}

// ChunkWithTitles splits text and derives one title per chunk, same order and
// length as the returned chunks.
func (c *Chunker) ChunkWithTitles(text string) ([]string, []string, error) {
	chunks, err := c.ChunkText(text)
	if err != nil {
		return nil, nil, err
	}

	titles := make([]string, len(chunks))
	for i, chunk := range chunks {
		titles[i] = GenerateTitle(chunk, 50)
	}

	return chunks, titles, nil
}

// GenerateTitle derives a short human-readable title from the beginning of a
// chunk: the first sentence, truncated to maxLength at a word boundary when
// one falls past the midpoint, with an ellipsis marker.
func GenerateTitle(text string, maxLength int) string {
	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if cleaned == "" {
		return untitled
	}

	title := cleaned
	if m := firstSentenceRe.FindString(cleaned); m != "" {
		title = strings.TrimSpace(m)
	}

	// Truncation counts characters, not bytes, so multibyte text never gets
	// cut mid-rune.
	if runes := []rune(title); len(runes) > maxLength {
		truncated := strings.TrimSpace(string(runes[:maxLength]))
		// Break at the last space unless that would leave a near-empty title.
		if lastSpace := strings.LastIndex(truncated, " "); lastSpace >= 0 &&
			utf8.RuneCountInString(truncated[:lastSpace]) > maxLength/2 {
			truncated = truncated[:lastSpace]
		}
		title = truncated + "..."
	}

	return title
}
