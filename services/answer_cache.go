package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"campus-chatbot-backend/internal/logger"
	"campus-chatbot-backend/models"
)

// AnswerCache stores recent answers in Redis keyed by a hash of the query
// text. Cache failures degrade to a miss; they never fail the request.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAnswerCache(rdb *redis.Client, ttl time.Duration) *AnswerCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &AnswerCache{rdb: rdb, ttl: ttl}
}

func answerCacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "answer:" + hex.EncodeToString(sum[:])
}

func (c *AnswerCache) Get(ctx context.Context, query string) (*models.AskResponse, bool) {
	raw, err := c.rdb.Get(ctx, answerCacheKey(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Answer cache read failed", "error", err)
		}
		return nil, false
	}

	var resp models.AskResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logger.Warn("Answer cache entry corrupt, dropping", "error", err)
		c.rdb.Del(ctx, answerCacheKey(query))
		return nil, false
	}
	return &resp, true
}

func (c *AnswerCache) Set(ctx context.Context, query string, resp *models.AskResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, answerCacheKey(query), raw, c.ttl).Err(); err != nil {
		logger.Warn("Answer cache write failed", "error", err)
	}
}
