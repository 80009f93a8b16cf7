package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Searches never return more passages than this.
const maxSearchTopK = 5

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Corpus location. BooksDir wins when set; otherwise the candidates are
	// tried in order.
	BooksDir           string
	BooksDirCandidates []string

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int
	PageCacheTTL  time.Duration

	// Embeddings configuration
	EmbeddingsProvider    string // "local" (default), "google", "openai"
	GoogleEmbeddingsModel string
	OpenAIAPIKey          string
	OpenAIEmbeddingsModel string
	LocalEmbeddingDim     int

	// Text completion
	GeminiAPIKey string
	GeminiModel  string
	GeminiTier   string
	// AnswerLanguage is the language the model is told to answer in.
	AnswerLanguage string

	// Retrieval
	SearchTopK        int
	IndexConcurrency  int
	IndexTimeout      time.Duration
	CacheWarmInterval time.Duration

	RateLimitReqs   int
	RateLimitWindow int

	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: getEnvList("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),

		BooksDir:           getEnv("BOOKS_DIR", ""),
		BooksDirCandidates: getEnvList("BOOKS_DIR_CANDIDATES", defaultBooksCandidates()),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		PageCacheTTL:  getEnvDuration("PAGE_CACHE_TTL", 7*24*time.Hour),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "local"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIEmbeddingsModel: getEnv("OPENAI_EMBEDDINGS_MODEL", "text-embedding-3-small"),
		LocalEmbeddingDim:     getEnvInt("LOCAL_EMBEDDING_DIM", 384),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTier:   getEnv("GEMINI_TIER", "free"),

		AnswerLanguage: getEnv("ANSWER_LANGUAGE", "Brazilian Portuguese"),

		SearchTopK:        getEnvInt("SEARCH_TOP_K", 5),
		IndexConcurrency:  getEnvInt("INDEX_CONCURRENCY", 4),
		IndexTimeout:      getEnvDuration("INDEX_TIMEOUT", 10*time.Minute),
		CacheWarmInterval: getEnvDuration("CACHE_WARM_INTERVAL", 24*time.Hour),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		TracingEnabled: getEnvBool("OTEL_ENABLED", false),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings the retrieval core cannot run without.
func (c *Config) Validate() error {
	if c.SearchTopK <= 0 || c.SearchTopK > maxSearchTopK {
		return fmt.Errorf("SEARCH_TOP_K must be between 1 and %d, got %d", maxSearchTopK, c.SearchTopK)
	}
	if c.IndexConcurrency <= 0 {
		return fmt.Errorf("INDEX_CONCURRENCY must be positive, got %d", c.IndexConcurrency)
	}

	switch c.EmbeddingsProvider {
	case "local":
		if c.LocalEmbeddingDim <= 0 {
			return fmt.Errorf("LOCAL_EMBEDDING_DIM must be positive, got %d", c.LocalEmbeddingDim)
		}
	case "google":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for google embeddings")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai embeddings")
		}
	default:
		return fmt.Errorf("unknown embeddings provider: %s", c.EmbeddingsProvider)
	}

	return nil
}

// CorpusCandidates returns the directories searched for rulebooks, in order.
func (c *Config) CorpusCandidates() []string {
	if c.BooksDir != "" {
		return []string{c.BooksDir}
	}
	return c.BooksDirCandidates
}

func defaultBooksCandidates() string {
	candidates := []string{}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "Books"))
	}
	candidates = append(candidates, "Books", "/app/Books")
	return strings.Join(candidates, ",")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
