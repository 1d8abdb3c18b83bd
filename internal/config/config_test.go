package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.GeminiModelID != "gemini-2.5-flash" {
		t.Errorf("unexpected default model: %s", cfg.GeminiModelID)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("unexpected default LLM timeout: %s", cfg.LLMTimeout)
	}
	if cfg.BusinessHoursStart != 9 || cfg.BusinessHoursEnd != 19 {
		t.Errorf("unexpected business hours: %d-%d", cfg.BusinessHoursStart, cfg.BusinessHoursEnd)
	}
	if len(cfg.OpsEmailRecipients) != 1 || cfg.OpsEmailRecipients[0] != "leads@liventygestion.com" {
		t.Errorf("unexpected default ops recipients: %v", cfg.OpsEmailRecipients)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("OPS_EMAIL_RECIPIENTS", "a@liventy.com, b@liventy.com")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://liventygestion.com,https://www.liventygestion.com")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.LLMTimeout)
	}
	if len(cfg.OpsEmailRecipients) != 2 || cfg.OpsEmailRecipients[1] != "b@liventy.com" {
		t.Errorf("unexpected ops recipients: %v", cfg.OpsEmailRecipients)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("BUSINESS_HOURS_START", "not-a-number")
	cfg := Load()
	if cfg.BusinessHoursStart != 9 {
		t.Errorf("expected fallback 9, got %d", cfg.BusinessHoursStart)
	}
}
