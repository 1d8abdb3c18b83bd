package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	AdminBaseURL  string
	LogLevel      string
	DatabaseURL   string

	// Gemini LLM configuration
	GeminiAPIKey   string
	GeminiModelID  string
	LLMTimeout     time.Duration
	LLMMaxTokens   int
	LLMTemperature float64

	// Lead notification configuration
	OpsEmailRecipients []string
	LeadWebhookURL     string
	NotifyTimeout      time.Duration

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Admin API
	AdminJWTSecret string

	// Business hours (Europe/Madrid)
	BusinessHoursStart int
	BusinessHoursEnd   int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		AdminBaseURL:  getEnv("ADMIN_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		LLMMaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.4),

		OpsEmailRecipients: getEnvAsList("OPS_EMAIL_RECIPIENTS", "leads@liventygestion.com"),
		LeadWebhookURL:     getEnv("LEAD_WEBHOOK_URL", ""),
		NotifyTimeout:      getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "no-reply@liventygestion.com"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Liventy Gestión"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		BusinessHoursStart: getEnvAsInt("BUSINESS_HOURS_START", 9),
		BusinessHoursEnd:   getEnvAsInt("BUSINESS_HOURS_END", 19),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable into trimmed values.
func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			values = append(values, v)
		}
	}
	return values
}
