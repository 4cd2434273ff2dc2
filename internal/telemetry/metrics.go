package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	questionsAnswered metric.Int64Counter
	chunksIngested    metric.Int64Counter
	cacheHits         metric.Int64Counter
)

// InitMetrics registers the pipeline counters on the global meter provider.
// Recording before (or without) initialization is a no-op.
func InitMetrics() error {
	meter := otel.Meter("campus-chatbot-backend")

	var err error
	questionsAnswered, err = meter.Int64Counter("chatbot.questions_answered",
		metric.WithDescription("Questions answered through /api/ask"))
	if err != nil {
		return err
	}

	chunksIngested, err = meter.Int64Counter("chatbot.chunks_ingested",
		metric.WithDescription("Knowledge chunks persisted by ingestion"))
	if err != nil {
		return err
	}

	cacheHits, err = meter.Int64Counter("chatbot.answer_cache_hits",
		metric.WithDescription("Answers served from the Redis cache"))
	return err
}

func RecordQuestionAnswered(ctx context.Context) {
	if questionsAnswered != nil {
		questionsAnswered.Add(ctx, 1)
	}
}

func RecordChunksIngested(ctx context.Context, n int64) {
	if chunksIngested != nil {
		chunksIngested.Add(ctx, n)
	}
}

func RecordCacheHit(ctx context.Context) {
	if cacheHits != nil {
		cacheHits.Add(ctx, 1)
	}
}
