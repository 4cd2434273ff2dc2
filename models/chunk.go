package models

import "time"

// Source type tags for chunk provenance.
const (
	SourceTypePDF     = "pdf"
	SourceTypeWebsite = "website"
)

// KnowledgeChunk is the atomic retrievable unit: a bounded segment of source
// text stored together with its embedding and provenance. Chunks are immutable;
// re-ingesting a source always deletes and recreates its chunks.
type KnowledgeChunk struct {
	ChunkID    int64     `bson:"chunkId" json:"chunk_id"`
	Title      string    `bson:"title" json:"title"`
	Text       string    `bson:"text" json:"text"`
	Embedding  []float32 `bson:"embedding" json:"embedding,omitempty"`
	SourceType string    `bson:"sourceType" json:"source_type"`
	SourceName string    `bson:"sourceName" json:"source_name"`
	SourceURL  string    `bson:"sourceUrl,omitempty" json:"source_url,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"created_at"`
}

// SearchResult is one scored candidate returned by the vector index.
type SearchResult struct {
	Title string  `bson:"title" json:"title"`
	Text  string  `bson:"text" json:"text"`
	Score float64 `bson:"score" json:"score"`
}

// SourceRef identifies a chunk that contributed to an answer.
type SourceRef struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// QueryDiagnostics captures per-stage details of one answered question.
type QueryDiagnostics struct {
	Query         string    `json:"query"`
	Collection    string    `json:"collection"`
	VectorIndex   string    `json:"vector_index"`
	MinScore      float64   `json:"min_score"`
	Matches       int       `json:"matches"`
	NumCandidates int       `json:"num_candidates"`
	TopScore      float64   `json:"top_score"`
	Scores        []float64 `json:"scores"`
	Titles        []string  `json:"titles"`
	EmbeddingMS   int64     `json:"embedding_ms"`
	SearchMS      int64     `json:"search_ms"`
	TotalMS       int64     `json:"total_ms"`
	Cached        bool      `json:"cached,omitempty"`
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Query string `json:"query" binding:"required"`
}

// AskResponse is the answer payload returned to the caller.
type AskResponse struct {
	Answer  string           `json:"answer"`
	Sources []SourceRef      `json:"sources"`
	Debug   QueryDiagnostics `json:"debug"`
}

// IngestResult reports what one ingestion run persisted.
type IngestResult struct {
	ChunksCreated int    `json:"chunks_created"`
	SourceName    string `json:"source_name"`
	Warning       string `json:"warning,omitempty"`
}

// SourceSummary is one row of the knowledge-base inventory.
type SourceSummary struct {
	SourceType   string    `bson:"sourceType" json:"source_type"`
	SourceName   string    `bson:"sourceName" json:"source_name"`
	SourceURL    string    `bson:"sourceUrl,omitempty" json:"source_url,omitempty"`
	ChunkCount   int       `bson:"chunkCount" json:"chunk_count"`
	LastIngested time.Time `bson:"lastIngested" json:"last_ingested"`
}

// ScrapeRequest is the body of POST /api/scrape_url. Async defers the work
// to the background worker and returns immediately.
type ScrapeRequest struct {
	URL        string `json:"url" binding:"required"`
	SourceName string `json:"source_name"`
	RenderJS   bool   `json:"render_js"`
	Async      bool   `json:"async"`
}

// DeleteSourceRequest is the body of DELETE /api/sources.
type DeleteSourceRequest struct {
	SourceType string `json:"source_type"`
	SourceName string `json:"source_name"`
	SourceURL  string `json:"source_url"`
}
