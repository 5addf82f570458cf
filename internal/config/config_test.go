package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
providers:
  anthropic:
    api_key: file-key
    models: [claude-3-haiku-20240307]
  openai:
    base_url: http://localhost:9999/v1
benchmark:
  concurrency: 8
  timeout: 30s
results:
  max_runs: 10
leaderboard:
  db_path: /tmp/lb.db
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Providers["anthropic"].APIKey != "file-key" {
		t.Fatalf("anthropic key: got %q", cfg.Providers["anthropic"].APIKey)
	}
	if cfg.Providers["openai"].APIKey != "env-key" {
		t.Fatalf("openai key overlay: got %q", cfg.Providers["openai"].APIKey)
	}
	if cfg.Providers["openai"].BaseURL != "http://localhost:9999/v1" {
		t.Fatalf("openai base url: got %q", cfg.Providers["openai"].BaseURL)
	}
	if cfg.Benchmark.Concurrency != 8 {
		t.Fatalf("concurrency: got %d want 8", cfg.Benchmark.Concurrency)
	}
	if cfg.Benchmark.Timeout != 30*time.Second {
		t.Fatalf("timeout: got %v want 30s", cfg.Benchmark.Timeout)
	}
	if cfg.Results.MaxRuns != 10 {
		t.Fatalf("max runs: got %d want 10", cfg.Results.MaxRuns)
	}
	if cfg.Leaderboard.DBPath != "/tmp/lb.db" {
		t.Fatalf("db path: got %q", cfg.Leaderboard.DBPath)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Benchmark.Concurrency != 4 {
		t.Fatalf("default concurrency: got %d want 4", cfg.Benchmark.Concurrency)
	}
	if cfg.Benchmark.Timeout != 60*time.Second {
		t.Fatalf("default timeout: got %v", cfg.Benchmark.Timeout)
	}
	if cfg.Results.MaxRuns != 256 {
		t.Fatalf("default max runs: got %d", cfg.Results.MaxRuns)
	}
	if cfg.Leaderboard.CacheTTL != 5*time.Minute {
		t.Fatalf("default cache ttl: got %v", cfg.Leaderboard.CacheTTL)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("default addr: got %q", cfg.Server.Addr)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatalf("expected error for missing explicit path")
	}
}

func TestProviderEnabled(t *testing.T) {
	var p ProviderConfig
	if !p.ProviderEnabled() {
		t.Fatalf("nil Enabled should mean enabled")
	}
	off := false
	p.Enabled = &off
	if p.ProviderEnabled() {
		t.Fatalf("Enabled=false should disable")
	}
}
