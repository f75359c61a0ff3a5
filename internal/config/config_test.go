package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse([]byte(""))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Search.FeedTemplate == "" {
		t.Error("expected a default feed template")
	}
	if cfg.Fetch.TimeoutSeconds != 15 {
		t.Errorf("expected default timeout 15s, got %d", cfg.Fetch.TimeoutSeconds)
	}
	if cfg.Fetch.Concurrency != 2 {
		t.Errorf("expected default concurrency 2, got %d", cfg.Fetch.Concurrency)
	}
	if cfg.Fetch.DelayMS != 1000 {
		t.Errorf("expected default delay 1000ms, got %d", cfg.Fetch.DelayMS)
	}
	if cfg.Analyze.TopN != 3 {
		t.Errorf("expected default top_n 3, got %d", cfg.Analyze.TopN)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
}

func TestParsePartialOverride(t *testing.T) {
	yaml := `
fetch:
  concurrency: 3
server:
  port: 9000
`
	cfg, err := parse([]byte(yaml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Fetch.Concurrency != 3 {
		t.Errorf("expected concurrency 3, got %d", cfg.Fetch.Concurrency)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Untouched sections keep their defaults.
	if cfg.Fetch.TimeoutSeconds != 15 {
		t.Errorf("expected timeout default to survive, got %d", cfg.Fetch.TimeoutSeconds)
	}
	if cfg.Analyze.TopN != 3 {
		t.Errorf("expected top_n default to survive, got %d", cfg.Analyze.TopN)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := parse([]byte("fetch: [not a map")); err == nil {
		t.Error("expected an error for invalid YAML")
	}
}

func TestEmbeddedDefaultParses(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("the embedded default config must parse: %v", err)
	}
	if cfg.Search.FeedTemplate == "" {
		t.Error("embedded default must leave a usable feed template")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
search:
  feed_template: "https://example.com/rss?q=%s"
output:
  data_dir: /tmp/toppost-test
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.FeedTemplate != "https://example.com/rss?q=%s" {
		t.Errorf("unexpected feed template %q", cfg.Search.FeedTemplate)
	}
	if cfg.GetDataDir() != "/tmp/toppost-test" {
		t.Errorf("expected configured data dir, got %q", cfg.GetDataDir())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestResolveConfigPathExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	got, err := ResolveConfigPath(path)
	if err != nil {
		t.Fatalf("ResolveConfigPath: %v", err)
	}
	if got != path {
		t.Errorf("expected explicit path %q, got %q", path, got)
	}

	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing explicit path")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{}
	if cfg.FetchTimeout() != 15*time.Second {
		t.Errorf("zero timeout must fall back to 15s, got %v", cfg.FetchTimeout())
	}
	if cfg.FetchDelay() != time.Second {
		t.Errorf("zero delay must fall back to 1s, got %v", cfg.FetchDelay())
	}

	cfg.Fetch.TimeoutSeconds = 30
	cfg.Fetch.DelayMS = 250
	if cfg.FetchTimeout() != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.FetchTimeout())
	}
	if cfg.FetchDelay() != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.FetchDelay())
	}
}
