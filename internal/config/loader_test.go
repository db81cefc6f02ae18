package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Planner.Model != "openai/gpt-4o-mini" {
		t.Errorf("unexpected planner model: %s", cfg.Planner.Model)
	}
	if cfg.Planner.MaxTokens != 2048 {
		t.Errorf("unexpected planner max tokens: %d", cfg.Planner.MaxTokens)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Sync.MaxMessages != 200 || cfg.Sync.MaxContacts != 500 {
		t.Errorf("unexpected sync caps: %+v", cfg.Sync)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
planner:
  model: "anthropic/claude-sonnet"
webhook:
  gmail_secret: "s1"
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Planner.Model != "anthropic/claude-sonnet" {
		t.Errorf("expected overridden model, got %s", cfg.Planner.Model)
	}
	if cfg.Webhook.GmailSecret != "s1" {
		t.Errorf("expected webhook secret override, got %q", cfg.Webhook.GmailSecret)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/path.yaml"); err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	t.Setenv("TASKFORGE_PORT", "7070")
	t.Setenv("TASKFORGE_PLANNER_MAX_TOKENS", "512")
	t.Setenv("TASKFORGE_RETRIEVAL_CACHE_TTL", "90s")

	cfg := Defaults()
	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected env port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Planner.MaxTokens != 512 {
		t.Errorf("expected env max tokens 512, got %d", cfg.Planner.MaxTokens)
	}
	if cfg.Retrieval.CacheTTL != 90*time.Second {
		t.Errorf("expected env cache TTL 90s, got %v", cfg.Retrieval.CacheTTL)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.DSN = ""
	if err := validate(&cfg); err == nil {
		t.Error("expected error for empty DSN")
	}

	cfg = Defaults()
	cfg.Planner.MaxTokens = 0
	if err := validate(&cfg); err == nil {
		t.Error("expected error for zero max tokens")
	}

	cfg = Defaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}
