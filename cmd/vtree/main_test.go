package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProject(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	doc := "state: {items: [a, b]}\ntemplate:\n  - element: ul\n    children:\n      - each: items\n        children:\n          - element: li\n            children: [{text: \"{{item}}\"}]\n"
	if err := os.WriteFile(filepath.Join(dir, "page.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	configPath = filepath.Join(dir, "vtree.json")
	if err := os.WriteFile(configPath, []byte(`{"log": {"level": "error"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, configPath
}

func TestRenderCmd(t *testing.T) {
	_, configPath := writeProject(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"compact", nil, "<ul><li>a</li><li>b</li></ul>"},
		{"pretty", []string{"--pretty"}, "<ul>\n  <li>a</li>\n  <li>b</li>\n</ul>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := renderCmd(&globalFlags{config: configPath})
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestRenderCmd_OutputFile(t *testing.T) {
	dir, configPath := writeProject(t)
	target := filepath.Join(dir, "index.html")

	cmd := renderCmd(&globalFlags{config: configPath})
	cmd.SetArgs([]string{filepath.Join(dir, "page.yaml"), "-o", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<ul><li>a</li><li>b</li></ul>" {
		t.Errorf("file = %q", data)
	}
}

func TestRenderCmd_InvalidDocument(t *testing.T) {
	dir, configPath := writeProject(t)
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("template:\n  - nope: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := renderCmd(&globalFlags{config: configPath})
	cmd.SetArgs([]string{bad})
	cmd.SetOut(io.Discard)
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "E150") {
		t.Errorf("Execute() error = %v, want E150", err)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	_, configPath := writeProject(t)

	cfg, err := loadConfig(&globalFlags{config: configPath, logLevel: "debug", logJSON: true})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}

	if _, err := loadConfig(&globalFlags{config: configPath, logLevel: "loud"}); err == nil {
		t.Error("loadConfig() accepted an invalid level")
	}
}

func TestLogHandler(t *testing.T) {
	tests := []struct {
		format string
		tty    bool
		json   bool
	}{
		{"auto", true, false},
		{"auto", false, true},
		{"text", false, false},
		{"json", true, true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		slog.New(logHandler(tt.format, &buf, tt.tty, nil)).Info("hi")
		if got := strings.HasPrefix(buf.String(), "{"); got != tt.json {
			t.Errorf("format %q tty=%v: JSON = %v, want %v (%q)", tt.format, tt.tty, got, tt.json, buf.String())
		}
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := versionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.String() != version+"\n" {
		t.Errorf("version = %q", out.String())
	}
}
