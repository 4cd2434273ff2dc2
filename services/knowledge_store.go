package services

import (
	"context"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus-chatbot-backend/internal/logger"
	"campus-chatbot-backend/models"
)

// ChunkCollection is the slice of the MongoDB collection API the knowledge
// pipeline uses. *mongo.Collection satisfies it; tests substitute fakes.
type ChunkCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	Distinct(ctx context.Context, fieldName string, filter interface{}, opts ...*options.DistinctOptions) ([]interface{}, error)
}

// SaveResult reports what one save run persisted. Warning is set when the
// pre-insert delete of the previous generation failed but the save proceeded.
type SaveResult struct {
	SavedCount int
	Warning    string
}

// KnowledgeStore persists chunks with their embeddings and provenance.
// Ingesting a source identity (sourceUrl, or sourceType+sourceName) always
// replaces all of its chunks: delete first, then insert the new set.
type KnowledgeStore struct {
	col    ChunkCollection
	nextID atomic.Int64
}

func NewKnowledgeStore(col ChunkCollection) *KnowledgeStore {
	s := &KnowledgeStore{col: col}
	// Seed once from the clock; every chunk ID after that is a plain atomic
	// increment, so concurrent ingestions in one process cannot collide.
	s.nextID.Store(time.Now().UnixMicro())
	return s
}

func (s *KnowledgeStore) allocateID() int64 {
	return s.nextID.Add(1)
}

// SaveChunks validates the batch, deletes the previous generation of the
// source identity, then inserts chunk records one by one. A delete failure is
// reported via SaveResult.Warning and does not abort the save; an insert
// failure stops immediately and the result carries how many chunks made it.
func (s *KnowledgeStore) SaveChunks(ctx context.Context, chunks []string, embeddings [][]float32,
	sourceType, sourceName string, titles []string, sourceURL string) (*SaveResult, error) {

	if len(chunks) == 0 || len(embeddings) == 0 {
		return nil, newValidationError("storage", "chunks and embeddings cannot be empty")
	}
	if len(chunks) != len(embeddings) {
		return nil, newValidationError("storage", "chunks (%d) and embeddings (%d) length mismatch",
			len(chunks), len(embeddings))
	}
	if titles != nil && len(titles) != len(chunks) {
		return nil, newValidationError("storage", "titles (%d) and chunks (%d) length mismatch",
			len(titles), len(chunks))
	}

	result := &SaveResult{}

	// Replace semantics: drop the old generation first. Failing to delete is
	// degraded, not fatal; stale chunks are better than no knowledge at all.
	if _, err := s.DeleteBySource(ctx, sourceType, sourceName, sourceURL); err != nil {
		logger.Warn("Failed to delete old chunks before insert",
			"source_name", sourceName, "source_url", sourceURL, "error", err)
		result.Warning = "failed to delete previous chunks for this source; stale entries may remain"
	}

	now := time.Now().UTC()
	for i, text := range chunks {
		title := ""
		if titles != nil {
			title = titles[i]
		}
		if title == "" {
			title = GenerateTitle(text, 50)
		}

		chunk := models.KnowledgeChunk{
			ChunkID:    s.allocateID(),
			Title:      title,
			Text:       text,
			Embedding:  embeddings[i],
			SourceType: sourceType,
			SourceName: sourceName,
			SourceURL:  sourceURL,
			CreatedAt:  now,
		}

		if _, err := s.col.InsertOne(ctx, chunk); err != nil {
			return result, &Error{
				Category: CategoryPartial,
				Stage:    "storage",
				Message:  "failed to save chunk " + title,
				Err:      err,
			}
		}
		result.SavedCount++
	}

	return result, nil
}

// DeleteBySource removes all chunks under one source identity. Requires
// either sourceURL or both sourceType and sourceName.
func (s *KnowledgeStore) DeleteBySource(ctx context.Context, sourceType, sourceName, sourceURL string) (int64, error) {
	filter, err := sourceFilter(sourceType, sourceName, sourceURL)
	if err != nil {
		return 0, err
	}

	res, err := s.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, newDependencyError("storage", err, "delete by source failed")
	}
	return res.DeletedCount, nil
}

// SourceExists probes whether any chunk is stored under the given identity.
// A lookup failure is treated as "assume absent", not as an error; callers
// relying on a positive answer must know this fails open.
func (s *KnowledgeStore) SourceExists(ctx context.Context, sourceType, sourceName, sourceURL string) bool {
	filter, err := sourceFilter(sourceType, sourceName, sourceURL)
	if err != nil {
		return false
	}

	count, err := s.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		logger.Warn("Source existence check failed, assuming absent",
			"source_name", sourceName, "source_url", sourceURL, "error", err)
		return false
	}
	return count > 0
}

// DistinctSourceURLs lists the canonical URLs of all scraped sources, for the
// re-scrape scheduler.
func (s *KnowledgeStore) DistinctSourceURLs(ctx context.Context) ([]string, error) {
	values, err := s.col.Distinct(ctx, "sourceUrl", bson.M{
		"sourceType": models.SourceTypeWebsite,
		"sourceUrl":  bson.M{"$nin": bson.A{nil, ""}},
	})
	if err != nil {
		return nil, newDependencyError("storage", err, "distinct source urls failed")
	}

	urls := make([]string, 0, len(values))
	for _, v := range values {
		if url, ok := v.(string); ok && url != "" {
			urls = append(urls, url)
		}
	}
	return urls, nil
}

// SourceSummaries aggregates the stored chunks into one inventory row per
// source identity.
func (s *KnowledgeStore) SourceSummaries(ctx context.Context) ([]models.SourceSummary, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "sourceType", Value: "$sourceType"},
				{Key: "sourceName", Value: "$sourceName"},
				{Key: "sourceUrl", Value: "$sourceUrl"},
			}},
			{Key: "chunkCount", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "lastIngested", Value: bson.D{{Key: "$max", Value: "$createdAt"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "sourceType", Value: "$_id.sourceType"},
			{Key: "sourceName", Value: "$_id.sourceName"},
			{Key: "sourceUrl", Value: "$_id.sourceUrl"},
			{Key: "chunkCount", Value: 1},
			{Key: "lastIngested", Value: 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "sourceName", Value: 1}}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, newDependencyError("storage", err, "source summary aggregation failed")
	}
	defer cursor.Close(ctx)

	var summaries []models.SourceSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, newDependencyError("storage", err, "decoding source summaries failed")
	}
	return summaries, nil
}

func sourceFilter(sourceType, sourceName, sourceURL string) (bson.M, error) {
	if sourceURL != "" {
		return bson.M{"sourceUrl": sourceURL}, nil
	}
	if sourceType == "" || sourceName == "" {
		return nil, newValidationError("storage",
			"either sourceUrl or both sourceType and sourceName are required")
	}
	return bson.M{"sourceType": sourceType, "sourceName": sourceName}, nil
}
