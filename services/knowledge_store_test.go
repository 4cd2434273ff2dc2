package services

import (
	"context"
	"errors"
	"testing"

	"campus-chatbot-backend/models"
)

func TestSaveChunksLengthMismatchFailsFast(t *testing.T) {
	col := newFakeCollection()
	store := NewKnowledgeStore(col)

	chunks, embeddings, _ := chunkBatch(3)
	_, err := store.SaveChunks(context.Background(), chunks, embeddings[:2],
		models.SourceTypePDF, "Handbook", nil, "")

	if err == nil {
		t.Fatal("expected length-mismatch error")
	}
	if CategoryOf(err) != CategoryValidation {
		t.Fatalf("category = %v, want validation", CategoryOf(err))
	}
	if col.deleteCalls != 0 || col.insertCalls != 0 {
		t.Fatalf("validation failure must not touch the store: deletes=%d inserts=%d",
			col.deleteCalls, col.insertCalls)
	}
}

func TestSaveChunksTitleMismatchFailsFast(t *testing.T) {
	col := newFakeCollection()
	store := NewKnowledgeStore(col)

	chunks, embeddings, titles := chunkBatch(3)
	_, err := store.SaveChunks(context.Background(), chunks, embeddings,
		models.SourceTypePDF, "Handbook", titles[:2], "")

	if err == nil || CategoryOf(err) != CategoryValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveChunksEmptyBatchRejected(t *testing.T) {
	store := NewKnowledgeStore(newFakeCollection())

	_, err := store.SaveChunks(context.Background(), nil, nil, models.SourceTypePDF, "Handbook", nil, "")
	if err == nil || CategoryOf(err) != CategoryValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveChunksReplacesSourceGeneration(t *testing.T) {
	col := newFakeCollection()
	store := NewKnowledgeStore(col)
	ctx := context.Background()

	chunks, embeddings, titles := chunkBatch(3)

	for i := 0; i < 2; i++ {
		res, err := store.SaveChunks(ctx, chunks, embeddings, models.SourceTypePDF, "Handbook", titles, "")
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if res.SavedCount != 3 {
			t.Fatalf("save %d: saved %d, want 3", i, res.SavedCount)
		}
	}

	// Re-ingestion must not double the stored chunks.
	if len(col.docs) != 3 {
		t.Fatalf("store holds %d chunks after re-ingestion, want 3", len(col.docs))
	}
}

func TestSaveChunksAssignsUniqueIDs(t *testing.T) {
	col := newFakeCollection()
	store := NewKnowledgeStore(col)

	chunks, embeddings, titles := chunkBatch(5)
	if _, err := store.SaveChunks(context.Background(), chunks, embeddings,
		models.SourceTypePDF, "Handbook", titles, ""); err != nil {
		t.Fatalf("save: %v", err)
	}

	seen := map[int64]bool{}
	for _, doc := range col.docs {
		if seen[doc.ChunkID] {
			t.Fatalf("duplicate chunk id %d", doc.ChunkID)
		}
		seen[doc.ChunkID] = true
	}
}

func TestSaveChunksPartialFailureReportsProgress(t *testing.T) {
	col := newFakeCollection()
	col.insertErrAt = 3
	store := NewKnowledgeStore(col)

	chunks, embeddings, titles := chunkBatch(5)
	res, err := store.SaveChunks(context.Background(), chunks, embeddings,
		models.SourceTypePDF, "Handbook", titles, "")

	if err == nil {
		t.Fatal("expected partial failure")
	}
	if CategoryOf(err) != CategoryPartial {
		t.Fatalf("category = %v, want partial", CategoryOf(err))
	}
	if res == nil || res.SavedCount != 2 {
		t.Fatalf("result = %+v, want SavedCount 2", res)
	}
}

func TestSaveChunksDeleteFailureIsNonFatal(t *testing.T) {
	col := newFakeCollection()
	col.deleteErr = errors.New("replica set unavailable")
	store := NewKnowledgeStore(col)

	chunks, embeddings, titles := chunkBatch(2)
	res, err := store.SaveChunks(context.Background(), chunks, embeddings,
		models.SourceTypePDF, "Handbook", titles, "")

	if err != nil {
		t.Fatalf("delete failure must not fail the save: %v", err)
	}
	if res.SavedCount != 2 {
		t.Fatalf("saved %d, want 2", res.SavedCount)
	}
	if res.Warning == "" {
		t.Fatal("expected a degraded-operation warning on the result")
	}
}

func TestSaveChunksURLIdentityWinsOverNamePair(t *testing.T) {
	col := newFakeCollection()
	store := NewKnowledgeStore(col)
	ctx := context.Background()

	chunks, embeddings, titles := chunkBatch(2)
	url := "https://example.edu/handbook"

	if _, err := store.SaveChunks(ctx, chunks, embeddings, models.SourceTypeWebsite, "Handbook", titles, url); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Same URL, different display name: still the same identity.
	if _, err := store.SaveChunks(ctx, chunks, embeddings, models.SourceTypeWebsite, "Renamed", titles, url); err != nil {
		t.Fatalf("save: %v", err)
	}

	if len(col.docs) != 2 {
		t.Fatalf("store holds %d chunks, want 2 (url identity replaced)", len(col.docs))
	}
}

func TestDeleteBySourceArgumentValidation(t *testing.T) {
	store := NewKnowledgeStore(newFakeCollection())

	_, err := store.DeleteBySource(context.Background(), "pdf", "", "")
	if err == nil || CategoryOf(err) != CategoryValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = store.DeleteBySource(context.Background(), "", "", "")
	if err == nil || CategoryOf(err) != CategoryValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteBySourceCountsDeletions(t *testing.T) {
	col := newFakeCollection()
	store := NewKnowledgeStore(col)
	ctx := context.Background()

	chunks, embeddings, titles := chunkBatch(3)
	store.SaveChunks(ctx, chunks, embeddings, models.SourceTypePDF, "Handbook", titles, "")
	store.SaveChunks(ctx, chunks, embeddings, models.SourceTypePDF, "Prospectus", titles, "")

	deleted, err := store.DeleteBySource(ctx, models.SourceTypePDF, "Handbook", "")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("deleted %d, want 3", deleted)
	}
	if len(col.docs) != 3 {
		t.Fatalf("store holds %d chunks, want 3 from the other source", len(col.docs))
	}
}

func TestSourceExistsFailsOpen(t *testing.T) {
	col := newFakeCollection()
	store := NewKnowledgeStore(col)
	ctx := context.Background()

	chunks, embeddings, titles := chunkBatch(1)
	store.SaveChunks(ctx, chunks, embeddings, models.SourceTypePDF, "Handbook", titles, "")

	if !store.SourceExists(ctx, models.SourceTypePDF, "Handbook", "") {
		t.Fatal("expected source to exist")
	}
	if store.SourceExists(ctx, models.SourceTypePDF, "Missing", "") {
		t.Fatal("expected missing source to not exist")
	}

	// Lookup failure is reported as "absent", never as an error.
	col.countErr = errors.New("network timeout")
	if store.SourceExists(ctx, models.SourceTypePDF, "Handbook", "") {
		t.Fatal("lookup failure must fail open to false")
	}
}
