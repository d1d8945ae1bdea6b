package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. It is built once at process start
// and passed explicitly to every component; nothing reads the environment
// after LoadConfig returns.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	Region      string
	Stage       string

	DatabaseURL string
	RedisURL    string

	KafkaBrokers    []string
	ProcessingTopic string
	CompletionTopic string
	ConsumerGroup   string

	StorageDir string

	WorkflowID          string
	WorkflowConcurrency int
	WorkflowMaxRetries  int
}

// LoadConfig reads configuration from the environment, with a best-effort
// .env file load for local development.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		Region:      getEnv("REGION", "local"),
		Stage:       getEnv("STAGE", "dev"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		ProcessingTopic: getEnv("PROCESSING_TOPIC", "student-batch-processing"),
		CompletionTopic: getEnv("COMPLETION_TOPIC", "student-batch-completion"),
		ConsumerGroup:   getEnv("CONSUMER_GROUP", "student-service"),

		StorageDir: getEnv("STORAGE_DIR", "/var/lib/student-service/objects"),

		WorkflowID:          getEnv("WORKFLOW_ID", "student-batch-create"),
		WorkflowConcurrency: getEnvInt("WORKFLOW_CONCURRENCY", 10),
		WorkflowMaxRetries:  getEnvInt("WORKFLOW_MAX_RETRIES", 3),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ProcessingTopic == cfg.CompletionTopic {
		return nil, fmt.Errorf("processing and completion topics must differ")
	}
	if cfg.WorkflowConcurrency < 1 {
		return nil, fmt.Errorf("WORKFLOW_CONCURRENCY must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
