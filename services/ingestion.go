package services

import (
	"context"
	"strings"

	"campus-chatbot-backend/internal/ai"
	"campus-chatbot-backend/internal/logger"
	"campus-chatbot-backend/internal/telemetry"
	"campus-chatbot-backend/models"
)

// Ingestor composes the chunker, the embedding client and the knowledge store
// into the single "ingest a document" operation: split, title, embed, replace.
type Ingestor struct {
	chunker  *Chunker
	embedder *ai.EmbeddingClient
	store    *KnowledgeStore
}

func NewIngestor(chunker *Chunker, embedder *ai.EmbeddingClient, store *KnowledgeStore) *Ingestor {
	return &Ingestor{chunker: chunker, embedder: embedder, store: store}
}

// Ingest replaces the stored chunks of the given source identity with the
// chunks of text. Nothing is persisted unless every chunk embedded
// successfully; a partial storage failure reports how far the save got.
func (in *Ingestor) Ingest(ctx context.Context, text, sourceType, sourceName, sourceURL string) (*models.IngestResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newValidationError("ingestion", "document text is empty")
	}

	chunks, titles, err := in.chunker.ChunkWithTitles(text)
	if err != nil {
		return nil, err
	}

	results := in.embedder.EmbedMany(ctx, chunks, ai.PurposeDocument)

	embeddings := make([][]float32, len(results))
	for i, r := range results {
		if !r.OK() {
			// One bad item fails the whole batch before anything is stored;
			// a half-embedded document is worse than a retryable failure.
			return nil, newDependencyError("embedding", r.Err,
				"embedding chunk %d of %d failed", i+1, len(results))
		}
		embeddings[i] = r.Values
	}

	saveRes, err := in.store.SaveChunks(ctx, chunks, embeddings, sourceType, sourceName, titles, sourceURL)
	if err != nil {
		if saveRes != nil {
			return &models.IngestResult{
				ChunksCreated: saveRes.SavedCount,
				SourceName:    sourceName,
			}, err
		}
		return nil, err
	}

	logger.Info("Document ingested",
		"source_type", sourceType, "source_name", sourceName,
		"source_url", sourceURL, "chunks", saveRes.SavedCount)
	telemetry.RecordChunksIngested(ctx, int64(saveRes.SavedCount))

	return &models.IngestResult{
		ChunksCreated: saveRes.SavedCount,
		SourceName:    sourceName,
		Warning:       saveRes.Warning,
	}, nil
}
