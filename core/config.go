package core

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values. Values are read from the
// environment (optionally seeded from a .env file by main) with sensible
// defaults for everything except the OpenAI key.
type Config struct {
	// OpenAIAPIKey authenticates the goal-drafting collaborator.
	// When empty, goal corrections are reported as failed instead of drafted.
	OpenAIAPIKey string

	// OpenAIBaseURL optionally overrides the API endpoint (local gateways).
	OpenAIBaseURL string

	// GoalModel is the chat model used for drafting treatment goals.
	GoalModel string

	// AITimeout bounds each goal-generation call. A timeout degrades only
	// the file that made the call.
	AITimeout time.Duration

	// MaxConcurrent is the worker-pool size for per-file processing.
	MaxConcurrent int

	// ClassifyPages is how many leading pages are scanned for classification.
	ClassifyPages int

	// ReferenceFile optionally points at a YAML file overriding the
	// built-in CPT band table and clinic roster.
	ReferenceFile string

	// LogFilePath is where the rotating JSON log is written.
	LogFilePath string

	// DevMode enables debug-level colored console logging.
	DevMode bool
}

// LoadConfig reads configuration from the environment and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		GoalModel:     GetEnvOrDefault("OPENAI_GOAL_MODEL", "gpt-4o"),
		AITimeout:     ParseDurationEnv("AI_TIMEOUT_SECONDS", 60),
		MaxConcurrent: ParseIntEnv("MAX_CONCURRENT", 4),
		ClassifyPages: ParseIntEnv("CLASSIFY_PAGES", 2),
		ReferenceFile: os.Getenv("REFERENCE_FILE"),
		LogFilePath:   GetEnvOrDefault("LOG_FILE", "noteaudit.log"),
		DevMode:       ParseBoolEnv("DEV_MODE", false),
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.ClassifyPages < 1 {
		cfg.ClassifyPages = 1
	}

	return cfg, nil
}

// GetEnvOrDefault returns the value of an environment variable or a default.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ParseIntEnv parses an environment variable as an integer.
// Returns the default value if the variable is not set or cannot be parsed.
func ParseIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ParseBoolEnv parses an environment variable as a boolean.
// Accepts case-insensitive "true", "1", "yes", "on" / "false", "0", "no", "off".
func ParseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// ParseDurationEnv parses an environment variable as a duration in seconds.
func ParseDurationEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(ParseIntEnv(key, defaultSeconds)) * time.Second
}
