package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
)

// Purpose tags what an embedding will be used for. Asymmetric embedding models
// may embed stored documents and live queries differently, so the purpose is
// part of both the provider call and the cache key.
type Purpose string

const (
	PurposeDocument Purpose = "document"
	PurposeQuery    Purpose = "query"
)

// EmbedFunc is the raw provider call: text in, unnormalized vector out.
type EmbedFunc func(ctx context.Context, text string, purpose Purpose) ([]float32, error)

// EmbedResult is one item of a batch embedding: either a normalized vector or
// the reason this item failed. Callers must partition results before use.
type EmbedResult struct {
	Values []float32
	Err    error
}

func (r EmbedResult) OK() bool { return r.Err == nil }

// CacheStats reports the cache state for diagnostics.
type CacheStats struct {
	Entries   int    `json:"entries"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
	BatchSize int    `json:"batch_size"`
}

// EmbeddingClient converts text into unit-length vectors with a
// content-addressed cache in front of the provider. The cache is shared
// across concurrent requests and guarded by the mutex.
type EmbeddingClient struct {
	model     string
	dimension int
	batchSize int
	embed     EmbedFunc

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewEmbeddingClient wires the client to a provider call. Tests inject a fake
// EmbedFunc; production uses GeminiEmbedder.EmbedFunc().
func NewEmbeddingClient(model string, dimension, batchSize int, embed EmbedFunc) *EmbeddingClient {
	return &EmbeddingClient{
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
		embed:     embed,
		cache:     make(map[string][]float32),
	}
}

func cacheKey(text string, purpose Purpose) string {
	h := sha256.New()
	h.Write([]byte(purpose))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// EmbedOne returns the normalized embedding for text, hitting the provider
// only on cache miss.
func (c *EmbeddingClient) EmbedOne(ctx context.Context, text string, purpose Purpose) ([]float32, error) {
	key := cacheKey(text, purpose)

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	values, err := c.embed(ctx, text, purpose)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("embedding provider returned empty vector")
	}

	normalized := Normalize(values)

	c.mu.Lock()
	c.cache[key] = normalized
	c.mu.Unlock()

	return normalized, nil
}

// EmbedMany embeds each text independently, preserving input order and length.
// Individual failures are carried as tagged results rather than aborting the
// batch, so callers can decide the policy per item.
func (c *EmbeddingClient) EmbedMany(ctx context.Context, texts []string, purpose Purpose) []EmbedResult {
	results := make([]EmbedResult, len(texts))
	for i, text := range texts {
		values, err := c.EmbedOne(ctx, text, purpose)
		results[i] = EmbedResult{Values: values, Err: err}
	}
	return results
}

// ClearCache evicts all cached entries.
func (c *EmbeddingClient) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string][]float32)
	c.mu.Unlock()
}

// Stats reports the cache state. Diagnostic only.
func (c *EmbeddingClient) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.cache)
	c.mu.RUnlock()

	return CacheStats{
		Entries:   entries,
		Model:     c.model,
		Dimension: c.dimension,
		BatchSize: c.batchSize,
	}
}

// Normalize scales a vector to unit Euclidean length. A zero vector stays all
// zeros instead of dividing by zero.
func Normalize(values []float32) []float32 {
	var squaredSum float64
	for _, v := range values {
		squaredSum += float64(v) * float64(v)
	}

	length := math.Sqrt(squaredSum)
	normalized := make([]float32, len(values))
	if length == 0 {
		return normalized
	}

	for i, v := range values {
		normalized[i] = float32(float64(v) / length)
	}
	return normalized
}
