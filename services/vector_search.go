package services

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"campus-chatbot-backend/internal/config"
	"campus-chatbot-backend/models"
)

// VectorSearchEngine runs approximate nearest-neighbor queries against the
// Atlas vector index over the chunk embeddings. The index is probed with
// numCandidates oversampling before truncating to limit, and anything scoring
// below minScore is dropped from the result.
type VectorSearchEngine struct {
	col           ChunkCollection
	indexName     string
	limit         int
	numCandidates int
	minScore      float64
}

func NewVectorSearchEngine(col ChunkCollection, cfg *config.Config) *VectorSearchEngine {
	return &VectorSearchEngine{
		col:           col,
		indexName:     cfg.VectorIndexName,
		limit:         cfg.VectorLimit,
		numCandidates: cfg.NumCandidates,
		minScore:      cfg.MinScore,
	}
}

// Search returns the stored chunks most similar to the query vector, ordered
// by descending score. An empty result is a valid "no relevant knowledge"
// outcome, not an error.
func (e *VectorSearchEngine) Search(ctx context.Context, queryVector []float32) ([]models.SearchResult, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: e.indexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: queryVector},
			{Key: "numCandidates", Value: e.numCandidates},
			{Key: "limit", Value: e.limit},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "title", Value: 1},
			{Key: "text", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := e.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, newDependencyError("search", err, "vector search failed")
	}
	defer cursor.Close(ctx)

	var candidates []models.SearchResult
	if err := cursor.All(ctx, &candidates); err != nil {
		return nil, newDependencyError("search", err, "decoding search results failed")
	}

	results := make([]models.SearchResult, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Score < e.minScore {
			continue
		}
		results = append(results, cand)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > e.limit {
		results = results[:e.limit]
	}
	return results, nil
}

// MinScore exposes the configured threshold for diagnostics.
func (e *VectorSearchEngine) MinScore() float64 { return e.minScore }

// NumCandidates exposes the oversampling factor for diagnostics.
func (e *VectorSearchEngine) NumCandidates() int { return e.numCandidates }
