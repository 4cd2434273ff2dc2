package queue

import (
	"strings"

	"github.com/hibiken/asynq"

	"campus-chatbot-backend/internal/config"
)

// RedisConnOpt builds the asynq connection options from the same REDIS_URL
// the cache client accepts: either a full redis:// / rediss:// URI or a
// plain host:port with separate password and DB settings.
func RedisConnOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return asynq.ParseRedisURI(cfg.RedisURL)
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
