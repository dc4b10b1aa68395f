package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  baseURL: http://quiz.local
  timeout: 5s
user:
  id: from-file
quiz:
  ttl: 2m
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUIZ_USER_ID", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "http://quiz.local" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.User.ID != "from-env" {
		t.Fatalf("expected env override, got %q", cfg.User.ID)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level %q", cfg.Log.Level)
	}
	if got := TTLDuration(cfg.Quiz.TTL, time.Minute); got != 2*time.Minute {
		t.Fatalf("unexpected quiz ttl %v", got)
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	t.Setenv("QUIZ_API_URL", "http://env.local")

	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.API.BaseURL != "http://env.local" {
		t.Fatalf("expected env value, got %q", cfg.API.BaseURL)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("Load should still fail on a missing file")
	}
}

func TestTTLDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":      time.Minute,
		"bogus": time.Minute,
		"30s":   30 * time.Second,
	}
	for raw, want := range cases {
		if got := TTLDuration(raw, time.Minute); got != want {
			t.Fatalf("TTLDuration(%q) = %v, want %v", raw, got, want)
		}
	}
}
