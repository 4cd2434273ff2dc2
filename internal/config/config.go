package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// MongoDB
	MongoURI            string
	DBName              string
	KnowledgeCollection string
	VectorIndexName     string

	// Gemini
	GeminiAPIKey   string
	GeminiModel    string
	EmbeddingModel string
	VectorDim      int
	EmbedBatchSize int

	// Chunking
	ChunkSize       int
	ChunkOverlap    int
	ChunkSeparators []string

	// Vector search
	VectorLimit   int
	NumCandidates int
	MinScore      float64

	// Ingestion
	PDFPageTimeoutSeconds int
	MaxFileSize           int64
	RescrapeIntervalHours int

	// HTTP
	Port            string
	GinMode         string
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow int

	// Redis / async
	RedisURL              string
	RedisPassword         string
	RedisDB               int
	AnswerCacheTTLSeconds int

	// Admin auth
	JWTSecret         string
	JWTExpiresIn      string
	AdminUsername     string
	AdminPasswordHash string

	// Telemetry
	OTELEnabled  bool
	OTELEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017/chatbot"),
		DBName:              getEnv("DB_NAME", "Chatbot"),
		KnowledgeCollection: getEnv("KNOWLEDGE_COLLECTION", "knowledgeChunks"),
		VectorIndexName:     getEnv("VECTOR_INDEX_NAME", "vector_index"),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		VectorDim:      getEnvInt("VECTOR_DIM", 768),
		EmbedBatchSize: getEnvInt("EMBEDDING_BATCH_SIZE", 16),

		ChunkSize:       getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:    getEnvInt("CHUNK_OVERLAP", 50),
		ChunkSeparators: splitList(getEnv("CHUNK_SEPARATORS", "\\n\\n,\\n,. , ")),

		VectorLimit:   getEnvInt("VECTOR_LIMIT", 5),
		NumCandidates: getEnvInt("NUM_CANDIDATES", 100),
		MinScore:      getEnvFloat64("MIN_SCORE", 0.2),

		PDFPageTimeoutSeconds: getEnvInt("PDF_PAGE_TIMEOUT_SECONDS", 20),
		MaxFileSize:           getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB
		RescrapeIntervalHours: getEnvInt("RESCRAPE_INTERVAL_HOURS", 0),

		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),

		RedisURL:              getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		AnswerCacheTTLSeconds: getEnvInt("ANSWER_CACHE_TTL_SECONDS", 0),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTExpiresIn:      getEnv("JWT_EXPIRES_IN", "24h"),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_ENDPOINT", "localhost:4317"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required - set it in .env file")
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)",
			cfg.ChunkOverlap, cfg.ChunkSize)
	}

	if cfg.NumCandidates < cfg.VectorLimit {
		cfg.NumCandidates = cfg.VectorLimit
	}

	return cfg, nil
}

// splitList splits a comma-separated env value, unescaping \n and \t so
// separator lists like "\n\n,\n,. , " survive the environment.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ReplaceAll(p, "\\n", "\n")
		p = strings.ReplaceAll(p, "\\t", "\t")
		out = append(out, p)
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
