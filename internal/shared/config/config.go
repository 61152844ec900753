package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string

	LLMProvider       string
	LLMModel          string
	OpenAIAPIKey      string
	LLMTimeout        time.Duration
	LLMMaxAttempts    int
	LLMRetryBaseDelay time.Duration

	AnalysisLanguage   string
	DegradedConfidence float64

	TotalImages    int
	MinStoryChars  int
	SessionTimeout time.Duration
	SweepInterval  time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,

		LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4o"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		LLMTimeout:        getEnvSeconds("LLM_TIMEOUT_SECONDS", 30*time.Second),
		LLMMaxAttempts:    getEnvInt("LLM_MAX_ATTEMPTS", 3),
		LLMRetryBaseDelay: getEnvDuration("LLM_RETRY_BASE_DELAY", 300*time.Millisecond),

		AnalysisLanguage:   getEnv("ANALYSIS_LANGUAGE", "chinese"),
		DegradedConfidence: getEnvFloat("DEGRADED_CONFIDENCE", 0.5),

		TotalImages:    getEnvInt("TOTAL_IMAGES", 10),
		MinStoryChars:  getEnvInt("MIN_STORY_CHARS", 20),
		SessionTimeout: getEnvSeconds("SESSION_TIMEOUT_SECONDS", time.Hour),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return parsed
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return parsed
}

func getEnvSeconds(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return time.Duration(parsed) * time.Second
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
