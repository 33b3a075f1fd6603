package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Generation  GenerationConfig
	Embedding   EmbeddingConfig
	Retrieval   RetrievalConfig
	Translation TranslationConfig
	Redis       RedisConfig
	Nats        NatsConfig
	Otel        OtelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	JwtSecret          string
	ChatExportDir      string
	EventTopic         string
}

type GenerationConfig struct {
	Provider          string // "deepseek", "openai", "anthropic", "gemini", "ollama"
	APIKey            string
	BaseURL           string
	TextbookModel     string
	DetailedModel     string
	AdvancedModel     string
	FallbackModel     string
	SuggestionModel   string
	MaxOutputTokens   int
	GenerationTimeout time.Duration
	RetryAttempts     int
	RetryBackoff      time.Duration
	HistoryTurns      int
}

type EmbeddingConfig struct {
	Provider  string // "openai", "gemini", "ollama"
	APIKey    string
	BaseURL   string
	Model     string
	CacheSize int
}

type RetrievalConfig struct {
	Store         string // "chromem" or "pgvector"
	IndexDir      string
	Collection    string
	DBConnection  string
	SourceFilter  string
	ChunkStrategy string // "chars" or "sentences"
	ChunkSize     int
	ChunkOverlap  int
	TokenLimit    int
}

type TranslationConfig struct {
	Provider      string // "llm", "libre", "noop"
	Model         string
	LibreEndpoint string
	LibreAPIKey   string
	RateLimit     int
	CacheSize     int
}

type RedisConfig struct {
	URL     string
	Enabled bool
}

type NatsConfig struct {
	URL     string
	Enabled bool
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	chatModel := getEnv("GENERATION_MODEL", "deepseek-chat")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/tutor.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			ChatExportDir:      getEnv("CHAT_EXPORT_DIR", "chat_exports"),
			EventTopic:         getEnv("EVENT_TOPIC", "tutor.answers"),
		},
		Generation: GenerationConfig{
			Provider:          strings.ToLower(getEnv("GENERATION_PROVIDER", "deepseek")),
			APIKey:            getEnv("GENERATION_API_KEY", ""),
			BaseURL:           getEnv("GENERATION_BASE_URL", ""),
			TextbookModel:     getEnv("TEXTBOOK_MODEL", chatModel),
			DetailedModel:     getEnv("DETAILED_MODEL", chatModel),
			AdvancedModel:     getEnv("ADVANCED_MODEL", "deepseek-reasoner"),
			FallbackModel:     getEnv("FALLBACK_MODEL", chatModel),
			SuggestionModel:   getEnv("SUGGESTION_MODEL", chatModel),
			MaxOutputTokens:   getEnvAsInt("MAX_OUTPUT_TOKENS", 1024),
			GenerationTimeout: getEnvAsDuration("GENERATION_TIMEOUT", 12*time.Second),
			RetryAttempts:     getEnvAsInt("GENERATION_RETRY_ATTEMPTS", 3),
			RetryBackoff:      getEnvAsDuration("GENERATION_RETRY_BACKOFF", 500*time.Millisecond),
			HistoryTurns:      getEnvAsInt("HISTORY_TURNS", 6),
		},
		Embedding: EmbeddingConfig{
			Provider:  strings.ToLower(getEnv("EMBEDDING_PROVIDER", "openai")),
			APIKey:    getEnv("EMBEDDING_API_KEY", ""),
			BaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
			Model:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			CacheSize: getEnvAsInt("EMBEDDING_CACHE_SIZE", 512),
		},
		Retrieval: RetrievalConfig{
			Store:         strings.ToLower(getEnv("RETRIEVAL_STORE", "chromem")),
			IndexDir:      getEnv("RETRIEVAL_INDEX_DIR", "textbook_index"),
			Collection:    getEnv("RETRIEVAL_COLLECTION", "textbook"),
			DBConnection:  getEnv("DB_CONNECTION_STRING", ""),
			SourceFilter:  getEnv("RETRIEVAL_SOURCE", "textbook.pdf"),
			ChunkStrategy: strings.ToLower(getEnv("CHUNK_STRATEGY", "chars")),
			ChunkSize:     getEnvAsInt("CHUNK_SIZE", 800),
			ChunkOverlap:  getEnvAsInt("CHUNK_OVERLAP", 150),
			TokenLimit:    getEnvAsInt("CHUNK_TOKEN_LIMIT", 300),
		},
		Translation: TranslationConfig{
			Provider:      strings.ToLower(getEnv("TRANSLATOR_PROVIDER", "")),
			Model:         getEnv("TRANSLATOR_MODEL", chatModel),
			LibreEndpoint: getEnv("TRANSLATOR_ENDPOINT", ""),
			LibreAPIKey:   getEnv("TRANSLATOR_API_KEY", ""),
			RateLimit:     getEnvAsInt("TRANSLATOR_RATE_LIMIT", 30),
			CacheSize:     getEnvAsInt("TRANSLATOR_CACHE_SIZE", 64),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", "redis://localhost:6379"),
			Enabled: getEnvAsBool("REDIS_ENABLED", false),
		},
		Nats: NatsConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		Otel: OtelConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "buddy-tutor-be"),
		},
	}
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Generation.APIKey == "" && c.Generation.Provider != "ollama" {
		errs = append(errs, errors.New("GENERATION_API_KEY is required"))
	}
	if c.Retrieval.Store == "pgvector" && c.Retrieval.DBConnection == "" {
		errs = append(errs, errors.New("DB_CONNECTION_STRING is required when RETRIEVAL_STORE=pgvector"))
	}
	if c.Generation.RetryAttempts < 1 {
		errs = append(errs, errors.New("GENERATION_RETRY_ATTEMPTS must be at least 1"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
