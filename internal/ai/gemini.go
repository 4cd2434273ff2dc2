package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"campus-chatbot-backend/internal/config"
	"campus-chatbot-backend/internal/logger"
)

// GeminiEmbedder turns the Gemini embedding API into an EmbedFunc, mapping
// the purpose tag to the SDK task type so document and query embeddings use
// the asymmetric modes the model supports.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(ctx context.Context, cfg *config.Config) (*GeminiEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}
	return &GeminiEmbedder{client: client, model: cfg.EmbeddingModel}, nil
}

func (e *GeminiEmbedder) EmbedFunc() EmbedFunc {
	return func(ctx context.Context, text string, purpose Purpose) ([]float32, error) {
		model := e.client.EmbeddingModel(e.model)
		switch purpose {
		case PurposeQuery:
			model.TaskType = genai.TaskTypeRetrievalQuery
		default:
			model.TaskType = genai.TaskTypeRetrievalDocument
		}

		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	}
}

func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}

// GeminiClient wraps Gemini text generation behind a circuit breaker and a
// rate limiter so a degraded provider cannot pile up in-flight calls.
type GeminiClient struct {
	client  *genai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// Free-tier Gemini allows 10 requests per minute; stay just under it.
	limiter := rate.NewLimiter(rate.Limit(9.0/60.0), 2)

	return &GeminiClient{
		client:  client,
		model:   cfg.GeminiModel,
		breaker: breaker,
		limiter: limiter,
	}, nil
}

// Generate runs one prompt through the generation model and returns the
// trimmed text output.
func (gc *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", gc.model),
		attribute.Int("gemini.prompt_chars", len(prompt)),
	)

	if err := gc.limiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.model)
		model.SetTemperature(0.7)
		model.SetMaxOutputTokens(2048)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text := extractResponseText(result.(*genai.GenerateContentResponse))
	span.SetAttributes(attribute.Int("gemini.response_chars", len(text)))
	return text, nil
}

func (gc *GeminiClient) Close() error {
	return gc.client.Close()
}

func extractResponseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			reply.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(reply.String())
}
