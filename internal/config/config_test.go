package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("OTEL_ENABLED", "")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.HTTPAddr)
	}
	if cfg.Mail.SMTPPort != 587 {
		t.Fatalf("expected default smtp port, got %d", cfg.Mail.SMTPPort)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected default cors origins, got %v", cfg.CORSOrigins)
	}
	if cfg.Telemetry.Enabled {
		t.Fatalf("telemetry should be disabled by default")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if !cfg.Telemetry.Enabled {
		t.Fatalf("expected telemetry enabled")
	}
	if cfg.Mail.SMTPPort != 587 {
		t.Fatalf("invalid port should fall back to default, got %d", cfg.Mail.SMTPPort)
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8081")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "company_name: Muster IT\nmail:\n  transport: ses\n  from: office@muster.de\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CompanyName != "Muster IT" || cfg.Mail.Transport != "ses" || cfg.Mail.From != "office@muster.de" {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.HTTPAddr != ":8081" {
		t.Fatalf("env value should survive when the file does not set it, got %q", cfg.HTTPAddr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
