package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"campus-chatbot-backend/internal/ai"
	"campus-chatbot-backend/internal/logger"
	"campus-chatbot-backend/internal/telemetry"
	"campus-chatbot-backend/models"
)

const (
	// NoKnowledgeAnswer is returned when vector search finds nothing above
	// the threshold. The HTTP layer and tests rely on the exact sentinel.
	NoKnowledgeAnswer = "I could not find relevant information in the knowledge base to answer your question."

	noAnswerGenerated = "No answer generated."
	excerptCharBudget = 800
	contextDelimiter  = "\n\n---\n\n"
)

// Generator is the text-generation provider: prompt in, answer text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// QueryService answers a question by embedding it, retrieving the most
// similar stored chunks, and prompting the generation model with them.
type QueryService struct {
	embedder   *ai.EmbeddingClient
	search     *VectorSearchEngine
	generator  Generator
	collection string
	cache      *AnswerCache
}

func NewQueryService(embedder *ai.EmbeddingClient, search *VectorSearchEngine,
	generator Generator, collection string, cache *AnswerCache) *QueryService {
	return &QueryService{
		embedder:   embedder,
		search:     search,
		generator:  generator,
		collection: collection,
		cache:      cache,
	}
}

// Answer runs the full retrieval pipeline for one question and returns the
// answer together with its sources and per-stage diagnostics.
func (q *QueryService) Answer(ctx context.Context, query string) (*models.AskResponse, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newValidationError("query", "query cannot be empty")
	}

	tracer := otel.Tracer("query-service")
	ctx, span := tracer.Start(ctx, "chatbot.answer")
	defer span.End()
	span.SetAttributes(attribute.Int("query.chars", len(query)))

	if q.cache != nil {
		if resp, ok := q.cache.Get(ctx, query); ok {
			resp.Debug.Cached = true
			span.SetAttributes(attribute.Bool("query.cached", true))
			telemetry.RecordCacheHit(ctx)
			return resp, nil
		}
	}

	diag := models.QueryDiagnostics{
		Query:         query,
		Collection:    q.collection,
		VectorIndex:   q.search.indexName,
		MinScore:      q.search.MinScore(),
		NumCandidates: q.search.NumCandidates(),
		Scores:        []float64{},
		Titles:        []string{},
	}

	embedStart := time.Now()
	queryVector, err := q.embedder.EmbedOne(ctx, query, ai.PurposeQuery)
	diag.EmbeddingMS = time.Since(embedStart).Milliseconds()
	if err != nil {
		return nil, newDependencyError("embedding", err, "query embedding failed")
	}

	searchStart := time.Now()
	results, err := q.search.Search(ctx, queryVector)
	diag.SearchMS = time.Since(searchStart).Milliseconds()
	if err != nil {
		return nil, err
	}

	diag.Matches = len(results)
	for _, r := range results {
		diag.Scores = append(diag.Scores, r.Score)
		diag.Titles = append(diag.Titles, r.Title)
	}
	if len(results) > 0 {
		diag.TopScore = results[0].Score
	}
	span.SetAttributes(attribute.Int("query.matches", len(results)))

	if len(results) == 0 {
		diag.TotalMS = time.Since(start).Milliseconds()
		return &models.AskResponse{
			Answer:  NoKnowledgeAnswer,
			Sources: []models.SourceRef{},
			Debug:   diag,
		}, nil
	}

	contextStr, sources := buildAnswerContext(results)
	prompt := buildPrompt(query, contextStr)

	answer, err := q.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, newDependencyError("generation", err, "answer generation failed")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = noAnswerGenerated
	}

	diag.TotalMS = time.Since(start).Milliseconds()
	resp := &models.AskResponse{
		Answer:  answer,
		Sources: sources,
		Debug:   diag,
	}

	if q.cache != nil {
		q.cache.Set(ctx, query, resp)
	}

	telemetry.RecordQuestionAnswered(ctx)
	logger.Debug("Question answered",
		"matches", diag.Matches, "top_score", diag.TopScore, "total_ms", diag.TotalMS)

	return resp, nil
}

// buildAnswerContext formats each non-empty result as a labeled excerpt block
// and collects the parallel source references.
func buildAnswerContext(results []models.SearchResult) (string, []models.SourceRef) {
	blocks := make([]string, 0, len(results))
	sources := make([]models.SourceRef, 0, len(results))

	for _, r := range results {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		if runes := []rune(text); len(runes) > excerptCharBudget {
			text = string(runes[:excerptCharBudget])
		}

		blocks = append(blocks, fmt.Sprintf("[Source: %s]\n%s", r.Title, text))
		sources = append(sources, models.SourceRef{Title: r.Title, Score: r.Score})
	}

	return strings.Join(blocks, contextDelimiter), sources
}

func buildPrompt(question, contextStr string) string {
	return fmt.Sprintf(`You are a helpful assistant answering questions using only the provided context.
If the context does not contain the information needed to answer the question, say so clearly instead of making something up.

Question: %s

Context:
%s

Answer:`, question, contextStr)
}
