package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Preview.Port != DefaultPort {
		t.Errorf("Preview.Port = %d, want %d", cfg.Preview.Port, DefaultPort)
	}
	if cfg.Preview.Host != DefaultHost {
		t.Errorf("Preview.Host = %q, want %q", cfg.Preview.Host, DefaultHost)
	}
	if cfg.Document != DefaultDocument {
		t.Errorf("Document = %q, want %q", cfg.Document, DefaultDocument)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if err == nil || !strings.Contains(err.Error(), "E141") {
		t.Errorf("Load() on empty dir error = %v, want E141", err)
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	configJSON := `{
  "document": "site/index.yaml",
  "render": {"sanitize": true, "pretty": true},
  "preview": {"port": 8080, "host": "0.0.0.0", "watch": false},
  "log": {"level": "debug", "format": "json"},
  "publish": {"bucket": "snapshots", "region": "eu-west-1"}
}
`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Preview.Port != 8080 || cfg.Preview.Host != "0.0.0.0" {
		t.Errorf("Preview = %+v", cfg.Preview)
	}
	if cfg.Preview.Watch {
		t.Error("Preview.Watch should be false")
	}
	if cfg.Preview.PollInterval != "200ms" {
		t.Errorf("Preview.PollInterval = %q, want default", cfg.Preview.PollInterval)
	}
	if !cfg.Render.Sanitize || !cfg.Render.Pretty || cfg.Render.Indent != "  " {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.LogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Publish.Bucket != "snapshots" || cfg.Publish.CacheControl != "no-cache" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
	if got, want := cfg.DocumentPath(), filepath.Join(tmpDir, "site/index.yaml"); got != want {
		t.Errorf("DocumentPath = %q, want %q", got, want)
	}
	if cfg.Name != filepath.Base(tmpDir) {
		t.Errorf("Name = %q, want directory name", cfg.Name)
	}
}

func TestLoad_NameFromGoMod(t *testing.T) {
	tests := []struct {
		module string
		want   string
	}{
		{"github.com/acme/site", "site"},
		{"github.com/acme/site/v3", "site"},
		{"example", "example"},
	}
	for _, tt := range tests {
		tmpDir := t.TempDir()
		if err := os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte("module "+tt.module+"\n\ngo 1.24\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(tmpDir)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Name != tt.want {
			t.Errorf("module %q: Name = %q, want %q", tt.module, cfg.Name, tt.want)
		}
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	if err := os.WriteFile(configPath, []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "E120") {
		t.Errorf("Expected E120 error, got: %v", err)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Preview.Port = 9000
	cfg.Publish.Bucket = "b"

	if err := cfg.Save(); err == nil {
		t.Error("Expected error when saving without path")
	}
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Preview.Port != 9000 || loaded.Publish.Bucket != "b" {
		t.Errorf("loaded = %+v", loaded)
	}

	loaded.Preview.Port = 9001
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	reloaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.Preview.Port != 9001 {
		t.Errorf("Preview.Port = %d, want %d", reloaded.Preview.Port, 9001)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative port", func(c *Config) { c.Preview.Port = -1 }},
		{"port too large", func(c *Config) { c.Preview.Port = 70000 }},
		{"bad interval", func(c *Config) { c.Preview.PollInterval = "soon" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad indent", func(c *Config) { c.Render.Indent = "--" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), "E122") {
				t.Errorf("Validate() = %v, want E122", err)
			}
		})
	}
}

func TestAddresses(t *testing.T) {
	cfg := New()
	if got := cfg.PreviewURL(); got != "http://localhost:7070" {
		t.Errorf("PreviewURL = %q", got)
	}

	cfg.Preview.Host = "::1"
	cfg.Preview.Port = 8080
	if got := cfg.PreviewAddress(); got != "[::1]:8080" {
		t.Errorf("PreviewAddress = %q", got)
	}
}

func TestPollInterval(t *testing.T) {
	cfg := New()
	cfg.Preview.PollInterval = "1s"
	if cfg.PollInterval() != time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval())
	}
	cfg.Preview.PollInterval = "nope"
	if cfg.PollInterval() != 200*time.Millisecond {
		t.Errorf("PollInterval fallback = %v", cfg.PollInterval())
	}
}

func TestDocumentPath(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := New()
	if err := cfg.SaveTo(filepath.Join(tmpDir, ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	if got := cfg.DocumentPath(); got != filepath.Join(tmpDir, DefaultDocument) {
		t.Errorf("DocumentPath = %q", got)
	}
	cfg.Document = "/abs/page.yaml"
	if got := cfg.DocumentPath(); got != "/abs/page.yaml" {
		t.Errorf("DocumentPath absolute = %q", got)
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(tmpDir) {
		t.Error("Exists should be false for empty directory")
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	if !Exists(tmpDir) {
		t.Error("Exists should be true after creating config")
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}

	_, err := FindProjectRoot(nestedDir)
	if err == nil {
		t.Error("FindProjectRoot should fail when no config exists")
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nestedDir)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if root != tmpDir {
		t.Errorf("FindProjectRoot = %q, want %q", root, tmpDir)
	}

	root, err = FindProjectRoot(filepath.Join(tmpDir, "a"))
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if root != tmpDir {
		t.Errorf("FindProjectRoot = %q, want %q", root, tmpDir)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Preview.Port != DefaultPort || cfg.Log.Level != "info" || cfg.Tracing.TracerName != DefaultTracerName {
		t.Errorf("applyDefaults left %+v", cfg)
	}
	if cfg.Name != "" {
		t.Errorf("Name = %q, want empty without a config path", cfg.Name)
	}
}
