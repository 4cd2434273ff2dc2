package queue

import (
	"testing"

	"github.com/hibiken/asynq"

	"campus-chatbot-backend/internal/config"
)

func TestRedisConnOptHostPort(t *testing.T) {
	cfg := &config.Config{RedisURL: "redis-host:6380", RedisPassword: "secret", RedisDB: 2}

	opt, err := RedisConnOpt(cfg)
	if err != nil {
		t.Fatalf("RedisConnOpt failed: %v", err)
	}

	clientOpt, ok := opt.(asynq.RedisClientOpt)
	if !ok {
		t.Fatalf("expected RedisClientOpt, got %T", opt)
	}
	if clientOpt.Addr != "redis-host:6380" || clientOpt.Password != "secret" || clientOpt.DB != 2 {
		t.Fatalf("unexpected options: %+v", clientOpt)
	}
}

func TestRedisConnOptURI(t *testing.T) {
	cfg := &config.Config{RedisURL: "redis://:secret@redis-host:6380/2"}

	opt, err := RedisConnOpt(cfg)
	if err != nil {
		t.Fatalf("RedisConnOpt failed: %v", err)
	}

	clientOpt, ok := opt.(asynq.RedisClientOpt)
	if !ok {
		t.Fatalf("expected RedisClientOpt, got %T", opt)
	}
	if clientOpt.Addr != "redis-host:6380" || clientOpt.Password != "secret" || clientOpt.DB != 2 {
		t.Fatalf("unexpected options: %+v", clientOpt)
	}
}

func TestRedisConnOptBadURI(t *testing.T) {
	cfg := &config.Config{RedisURL: "redis://bad uri"}

	if _, err := RedisConnOpt(cfg); err == nil {
		t.Fatal("expected error for malformed URI")
	}
}
