package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus-chatbot-backend/internal/config"
	"campus-chatbot-backend/models"
)

func testConfig() *config.Config {
	return &config.Config{
		KnowledgeCollection: "knowledgeChunks",
		VectorIndexName:     "vector_index",
		VectorLimit:         5,
		NumCandidates:       100,
		MinScore:            0.2,
		ChunkSize:           500,
		ChunkOverlap:        50,
		VectorDim:           2,
		EmbedBatchSize:      8,
		GeminiModel:         "gemini-test",
		EmbeddingModel:      "embed-test",
	}
}

// fakeCollection is an in-memory stand-in for the Mongo chunk collection.
// Aggregate serves canned vector-search results through a real driver cursor.
type fakeCollection struct {
	docs []models.KnowledgeChunk

	insertErrAt int // fail the Nth insert (1-based); 0 disables
	insertCalls int
	deleteErr   error
	deleteCalls int
	countErr    error

	searchResults []models.SearchResult
	aggregateErr  error
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{}
}

func (f *fakeCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	f.insertCalls++
	if f.insertErrAt != 0 && f.insertCalls >= f.insertErrAt {
		return nil, context.DeadlineExceeded
	}
	chunk, ok := document.(models.KnowledgeChunk)
	if !ok {
		panic("fakeCollection: unexpected document type")
	}
	f.docs = append(f.docs, chunk)
	return &mongo.InsertOneResult{InsertedID: chunk.ChunkID}, nil
}

func (f *fakeCollection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	f.deleteCalls++
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}

	kept := f.docs[:0]
	var deleted int64
	for _, doc := range f.docs {
		if matchesFilter(doc, filter.(bson.M)) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	f.docs = kept
	return &mongo.DeleteResult{DeletedCount: deleted}, nil
}

func (f *fakeCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	var count int64
	for _, doc := range f.docs {
		if matchesFilter(doc, filter.(bson.M)) {
			count++
		}
	}
	return count, nil
}

func (f *fakeCollection) Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	if f.aggregateErr != nil {
		return nil, f.aggregateErr
	}
	docs := make([]interface{}, len(f.searchResults))
	for i, r := range f.searchResults {
		docs[i] = r
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (f *fakeCollection) Distinct(ctx context.Context, fieldName string, filter interface{}, opts ...*options.DistinctOptions) ([]interface{}, error) {
	seen := map[string]bool{}
	var values []interface{}
	for _, doc := range f.docs {
		if doc.SourceURL == "" || seen[doc.SourceURL] {
			continue
		}
		seen[doc.SourceURL] = true
		values = append(values, doc.SourceURL)
	}
	return values, nil
}

func matchesFilter(doc models.KnowledgeChunk, filter bson.M) bool {
	if url, ok := filter["sourceUrl"].(string); ok {
		return doc.SourceURL == url
	}
	st, _ := filter["sourceType"].(string)
	sn, _ := filter["sourceName"].(string)
	return doc.SourceType == st && doc.SourceName == sn
}

func chunkBatch(n int) ([]string, [][]float32, []string) {
	chunks := make([]string, n)
	embeddings := make([][]float32, n)
	titles := make([]string, n)
	for i := range chunks {
		chunks[i] = "Chunk content number " + string(rune('A'+i)) + "."
		embeddings[i] = []float32{1, 0}
		titles[i] = "Title " + string(rune('A'+i))
	}
	return chunks, embeddings, titles
}
