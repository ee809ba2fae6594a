package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Pipeline storage
	DataDir     string `json:"data_dir"`
	SourcesFile string `json:"sources_file"`
	PublishDir  string `json:"publish_dir"` // mirror target, empty disables

	// Fetching
	FetchTimeout time.Duration `json:"fetch_timeout"`
	APITimeout   time.Duration `json:"api_timeout"` // metadata/transcript endpoints

	// AI Configuration
	AIApiKey    string        `json:"ai_api_key"`
	AIModel     string        `json:"ai_model"`
	AIBaseURL   string        `json:"ai_base_url"`
	AITimeout   time.Duration `json:"ai_timeout"`
	AIMaxTokens int           `json:"ai_max_tokens"`

	// Serve
	Port        string        `json:"port"`
	HTTPTimeout time.Duration `json:"http_timeout"`
	RedisURL    string        `json:"redis_url"` // empty falls back to in-memory cache
	CacheTTL    time.Duration `json:"cache_ttl"`

	// R2/S3 mirror (optional second publish sink)
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"r2_access_key"`
	R2SecretKey string `json:"r2_secret_key"`
	R2Bucket    string `json:"r2_bucket"`

	// Logging
	LogLevel string `json:"log_level"`
}

// Load loads configuration from environment variables
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	return &Config{
		DataDir:     getEnv("DATA_DIR", "./data"),
		SourcesFile: getEnv("SOURCES_FILE", "./sources.yaml"),
		PublishDir:  getEnv("PUBLISH_DIR", "./web/public/data"),

		FetchTimeout: getEnvAsDuration("FETCH_TIMEOUT", 10*time.Second),
		APITimeout:   getEnvAsDuration("API_TIMEOUT", 10*time.Second),

		// The AI key is deliberately required with no baked-in default;
		// the summarize stage refuses to start without it.
		AIApiKey:    getEnv("AI_API_KEY", ""),
		AIModel:     getEnv("AI_MODEL", "glm-4-flash"),
		AIBaseURL:   getEnv("AI_BASE_URL", "https://open.bigmodel.cn/api/paas/v4"),
		AITimeout:   getEnvAsDuration("AI_TIMEOUT", 120*time.Second),
		AIMaxTokens: getEnvAsInt("AI_MAX_TOKENS", 8000),

		Port:        getEnv("PORT", "8080"),
		HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		RedisURL:    getEnv("REDIS_URL", ""),
		CacheTTL:    getEnvAsDuration("CACHE_TTL", 60*time.Second),

		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", "oasis-feed"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// RequireAIKey validates that the AI credential is present.
func (c *Config) RequireAIKey() error {
	if c.AIApiKey == "" {
		return fmt.Errorf("AI_API_KEY is not set; the summarize stage needs a valid API key")
	}
	return nil
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
