package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Listing source kinds
const (
	SourcePostgres = "postgres"
	SourceFile     = "file"
)

// Config holds all configuration for the application
type Config struct {
	Env        string
	PostgreSQL PostgreSQLConfig
	Source     SourceConfig
	Server     ServerConfig
	Search     SearchConfig
	Ranking    RankingConfig
	Commute    CommuteConfig
	Redis      RedisConfig
	Logging    LoggingConfig
	OpenAI     OpenAIConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred when set
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// SourceConfig selects where the listing snapshot comes from
type SourceConfig struct {
	Kind     string // postgres | file
	FilePath string // YAML snapshot path when Kind == file
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
	ShutdownSecs   int
	MetricsEnabled bool
}

// SearchConfig holds query pipeline tuning
type SearchConfig struct {
	DefaultMaxResults     int
	MaxResultsLimit       int
	DeterministicCap      int
	ScoreGroups           int
	ScorerPoolSize        int
	MinSemanticScore      int
	DescriptionMaxChars   int
	ReasonerTimeoutSecs   int
	EmbeddingDimensions   int
	SearchLogEnabled      bool
	AvailableCapabilities []string
}

// RankingConfig holds result composer weights
type RankingConfig struct {
	WeightMatch   float64
	WeightCommute float64
	WeightWalk    float64
}

// CommuteConfig holds commute scorer configuration
type CommuteConfig struct {
	APIKey         string
	APIBase        string
	DefaultMode    string
	TimeoutSecs    int
	MaxConcurrency int
	Enabled        bool
	FallbackMeters int // assumed distance when coordinates cannot be resolved
}

// RedisConfig holds the optional reasoning cache configuration
type RedisConfig struct {
	Addrs      []string
	Password   string
	DB         int
	TTLSeconds int
	Enabled    bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey          string
	APIBase         string
	ChatModel       string
	ChatTemperature float64
	ChatTopP        float64
	ChatMaxTokens   int
	Timeout         int
	Enabled         bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("APP_ENV", "local"),
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "rental_search"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Source: SourceConfig{
			Kind:     strings.ToLower(getEnv("LISTING_SOURCE", SourcePostgres)),
			FilePath: getEnv("LISTING_FILE", "./data/listings.yaml"),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
			ShutdownSecs:   getEnvAsInt("SERVER_SHUTDOWN_SECONDS", 10),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		Search: SearchConfig{
			DefaultMaxResults:     getEnvAsInt("SEARCH_DEFAULT_MAX_RESULTS", 5),
			MaxResultsLimit:       getEnvAsInt("SEARCH_MAX_RESULTS_LIMIT", 50),
			DeterministicCap:      getEnvAsInt("SEARCH_DETERMINISTIC_CAP", 10),
			ScoreGroups:           getEnvAsInt("SCORER_GROUPS", 5),
			ScorerPoolSize:        getEnvAsInt("SCORER_POOL_SIZE", 5),
			MinSemanticScore:      getEnvAsInt("SCORER_MIN_SCORE", 60),
			DescriptionMaxChars:   getEnvAsInt("SCORER_DESCRIPTION_MAX_CHARS", 300),
			ReasonerTimeoutSecs:   getEnvAsInt("REASONER_TIMEOUT_SECONDS", 30),
			EmbeddingDimensions:   getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),
			SearchLogEnabled:      getEnvAsBool("SEARCH_LOG_ENABLED", true),
			AvailableCapabilities: getEnvAsList("AVAILABLE_CAPABILITIES", "housing_search,commute_scorer,housing_summary"),
		},
		Ranking: RankingConfig{
			WeightMatch:   getEnvAsFloat("RANK_WEIGHT_MATCH", 0.6),
			WeightCommute: getEnvAsFloat("RANK_WEIGHT_COMMUTE", 0.3),
			WeightWalk:    getEnvAsFloat("RANK_WEIGHT_WALK", 0.1),
		},
		Commute: CommuteConfig{
			APIKey:         getEnv("COMMUTE_API_KEY", ""),
			APIBase:        getEnv("COMMUTE_API_BASE", "https://maps.googleapis.com/maps/api/distancematrix/json"),
			DefaultMode:    getEnv("COMMUTE_DEFAULT_MODE", "transit"),
			TimeoutSecs:    getEnvAsInt("COMMUTE_TIMEOUT_SECONDS", 10),
			MaxConcurrency: getEnvAsInt("COMMUTE_MAX_CONCURRENCY", 4),
			Enabled:        getEnv("COMMUTE_API_KEY", "") != "",
			FallbackMeters: getEnvAsInt("COMMUTE_FALLBACK_METERS", 15000),
		},
		Redis: RedisConfig{
			Addrs:      getEnvAsList("REDIS_ADDRS", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			TTLSeconds: getEnvAsInt("REASONER_CACHE_TTL_SECONDS", 3600),
			Enabled:    getEnv("REDIS_ADDRS", "") != "",
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			APIBase:         getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.2),
			ChatTopP:        getEnvAsFloat("OPENAI_CHAT_TOP_P", 0.7),
			ChatMaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 2048),
			Timeout:         getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:         getEnv("OPENAI_API_KEY", "") != "",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise break the pipeline at runtime
func (c *Config) Validate() error {
	if c.Source.Kind != SourcePostgres && c.Source.Kind != SourceFile {
		return fmt.Errorf("invalid LISTING_SOURCE %q: must be %s or %s", c.Source.Kind, SourcePostgres, SourceFile)
	}
	if c.Search.ScoreGroups < 1 {
		return fmt.Errorf("SCORER_GROUPS must be at least 1, got %d", c.Search.ScoreGroups)
	}
	if c.Search.DefaultMaxResults < 1 {
		return fmt.Errorf("SEARCH_DEFAULT_MAX_RESULTS must be at least 1, got %d", c.Search.DefaultMaxResults)
	}
	if c.Ranking.WeightMatch < 0 || c.Ranking.WeightCommute < 0 || c.Ranking.WeightWalk < 0 {
		return fmt.Errorf("ranking weights must not be negative")
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
