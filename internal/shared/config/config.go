package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	OpenAIAPIKey   string
	LLMModel       string
	LLMTimeoutSecs int
	LLMMaxAttempts int

	OCRBin             string
	OCRLangs           string
	OCRPageTimeoutSecs int

	MaxUploadMB    int
	MaxPromptChars int

	HindiFontPath string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             normalizeEnv(getEnv("ENV", "dev")),

		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeoutSecs: getEnvInt("OPENAI_TIMEOUT_SECONDS", 120),
		LLMMaxAttempts: getEnvInt("LLM_MAX_ATTEMPTS", 4),

		OCRBin:             getEnv("OCR_BIN", "tesseract"),
		OCRLangs:           getEnv("OCR_LANGS", "eng+hin"),
		OCRPageTimeoutSecs: getEnvInt("OCR_PAGE_TIMEOUT_SECONDS", 30),

		MaxUploadMB:    getEnvInt("MAX_UPLOAD_MB", 10),
		MaxPromptChars: getEnvInt("MAX_PROMPT_CHARS", 16000),

		HindiFontPath: getEnv("HINDI_FONT_PATH", "assets/fonts/NotoSansDevanagari-Regular.ttf"),
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
	default:
		return "dev"
	}
}
