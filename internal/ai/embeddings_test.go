package ai

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

func countingEmbedFunc(calls *int) EmbedFunc {
	return func(ctx context.Context, text string, purpose Purpose) ([]float32, error) {
		*calls++
		return []float32{3, 4}, nil
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float32{3, 4})
	want := []float32{0.6, 0.8}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Fatalf("Normalize([3 4])[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	var norm float64
	for _, v := range got {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-6 {
		t.Fatalf("normalized vector norm = %v, want 1", math.Sqrt(norm))
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	got := Normalize([]float32{0, 0, 0})
	if len(got) != 3 {
		t.Fatalf("length changed: %d", len(got))
	}
	for i, v := range got {
		if v != 0 {
			t.Fatalf("component %d = %v, want 0", i, v)
		}
	}
}

func TestEmbedOneCachesByTextAndPurpose(t *testing.T) {
	calls := 0
	c := NewEmbeddingClient("test-model", 2, 8, countingEmbedFunc(&calls))
	ctx := context.Background()

	if _, err := c.EmbedOne(ctx, "hello", PurposeDocument); err != nil {
		t.Fatalf("embed error: %v", err)
	}
	if _, err := c.EmbedOne(ctx, "hello", PurposeDocument); err != nil {
		t.Fatalf("embed error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("provider called %d times for identical text, want 1", calls)
	}

	// Same text, different purpose: separate cache entry.
	if _, err := c.EmbedOne(ctx, "hello", PurposeQuery); err != nil {
		t.Fatalf("embed error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("provider called %d times across purposes, want 2", calls)
	}
}

func TestClearCacheForcesProviderCall(t *testing.T) {
	calls := 0
	c := NewEmbeddingClient("test-model", 2, 8, countingEmbedFunc(&calls))
	ctx := context.Background()

	c.EmbedOne(ctx, "hello", PurposeDocument)
	c.ClearCache()
	c.EmbedOne(ctx, "hello", PurposeDocument)

	if calls != 2 {
		t.Fatalf("provider called %d times across ClearCache, want 2", calls)
	}
	if c.Stats().Entries != 1 {
		t.Fatalf("cache entries = %d, want 1", c.Stats().Entries)
	}
}

func TestEmbedOneReturnsNormalizedVector(t *testing.T) {
	c := NewEmbeddingClient("test-model", 2, 8, func(ctx context.Context, text string, purpose Purpose) ([]float32, error) {
		return []float32{3, 4}, nil
	})

	vec, err := c.EmbedOne(context.Background(), "hello", PurposeDocument)
	if err != nil {
		t.Fatalf("embed error: %v", err)
	}
	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Fatalf("vector not normalized: %v", vec)
	}
}

func TestEmbedManyPreservesOrderAndTagsFailures(t *testing.T) {
	failWord := "bad"
	c := NewEmbeddingClient("test-model", 2, 8, func(ctx context.Context, text string, purpose Purpose) ([]float32, error) {
		if text == failWord {
			return nil, errors.New("provider down")
		}
		return []float32{1, 0}, nil
	})

	results := c.EmbedMany(context.Background(), []string{"a", "bad", "c"}, PurposeDocument)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].OK() || !results[2].OK() {
		t.Fatalf("expected items 0 and 2 to succeed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].OK() {
		t.Fatalf("expected item 1 to carry the provider failure")
	}
}

func TestEmbedOneConcurrentAccess(t *testing.T) {
	c := NewEmbeddingClient("test-model", 2, 8, func(ctx context.Context, text string, purpose Purpose) ([]float32, error) {
		return []float32{1, 1}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			texts := []string{"alpha", "beta", "gamma"}
			if _, err := c.EmbedOne(context.Background(), texts[n%3], PurposeDocument); err != nil {
				t.Errorf("embed error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if c.Stats().Entries != 3 {
		t.Fatalf("cache entries = %d, want 3", c.Stats().Entries)
	}
}
