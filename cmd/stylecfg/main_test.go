package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

const declarationYAML = `content:
  - ./templates/**/*.html
darkMode: class
theme:
  extend:
    colors:
      brand: "#0ea5e9"
plugins:
  - forms
`

func writeDeclaration(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write declaration: %v", err)
	}
	return path
}

func TestRunResolveJSON(t *testing.T) {
	path := writeDeclaration(t, "stylecfg.yaml", declarationYAML)

	var out bytes.Buffer
	if err := runResolve(&out, zaptest.NewLogger(t), path, formatJSON); err != nil {
		t.Fatalf("runResolve returned error: %v", err)
	}

	var got struct {
		Content  []string       `json:"content"`
		DarkMode string         `json:"darkMode"`
		Theme    map[string]any `json:"theme"`
		Plugins  []any          `json:"plugins"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got.DarkMode != "class" {
		t.Fatalf("expected class dark mode, got %q", got.DarkMode)
	}
	if len(got.Content) != 1 || got.Content[0] != "./templates/**/*.html" {
		t.Fatalf("unexpected content: %v", got.Content)
	}
	colors, ok := got.Theme["colors"].(map[string]any)
	if !ok {
		t.Fatalf("expected colors category in theme, got %v", got.Theme)
	}
	if colors["brand"] != "#0ea5e9" || colors["black"] != "#000000" {
		t.Fatalf("expected extended and default colors, got %v", colors)
	}
	if len(got.Plugins) != 1 || got.Plugins[0] != "forms" {
		t.Fatalf("expected plugin passthrough, got %v", got.Plugins)
	}
}

func TestRunResolveYAML(t *testing.T) {
	path := writeDeclaration(t, "stylecfg.json", `{"darkMode":"media"}`)

	var out bytes.Buffer
	if err := runResolve(&out, zaptest.NewLogger(t), path, formatYAML); err != nil {
		t.Fatalf("runResolve returned error: %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out.String())
	}
	if got["darkMode"] != "media" {
		t.Fatalf("expected media dark mode, got %v", got["darkMode"])
	}
	if _, ok := got["theme"].(map[string]any); !ok {
		t.Fatalf("expected theme mapping, got %T", got["theme"])
	}
}

func TestRunResolveDefaultsWithoutDeclaration(t *testing.T) {
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	if err := runResolve(&out, zaptest.NewLogger(t), "", formatJSON); err != nil {
		t.Fatalf("runResolve returned error: %v", err)
	}
	if !strings.Contains(out.String(), `"darkMode": "media"`) {
		t.Fatalf("expected default dark mode in output, got %s", out.String())
	}
}

func clearSettingsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "STYLECFG_DECLARATION", "STYLECFG_WATCH", "STYLECFG_LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}
}

func TestRunResolveReadsSettingsSources(t *testing.T) {
	clearSettingsEnv(t)
	t.Chdir(t.TempDir())

	fromEnv := writeDeclaration(t, "env.yaml", "darkMode: class\n")
	fromFile := writeDeclaration(t, "file.yaml", "darkMode: media\ncontent: [./from-file/*.html]\n")
	settings := writeDeclaration(t, "settings.yaml", "declaration: "+fromFile+"\n")
	t.Setenv("STYLECFG_DECLARATION", fromEnv)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"resolve"}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"darkMode": "class"`) {
		t.Fatalf("expected declaration from STYLECFG_DECLARATION, got %s", stdout.String())
	}

	stdout.Reset()
	if code := run([]string{"--config", settings, "resolve"}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "./from-file/*.html") {
		t.Fatalf("expected declaration from the settings file, got %s", stdout.String())
	}
}

func TestRunExitCodes(t *testing.T) {
	clearSettingsEnv(t)
	valid := writeDeclaration(t, "stylecfg.yaml", declarationYAML)
	invalid := writeDeclaration(t, "stylecfg.yaml", "darkMode: toggle\n")

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{name: "valid declaration", args: []string{"resolve", "--declaration", valid}, wantCode: 0},
		{name: "schema error", args: []string{"resolve", "-d", invalid}, wantCode: 1, wantStderr: `field "darkMode"`},
		{name: "missing file", args: []string{"resolve", "-d", filepath.Join(t.TempDir(), "nope.yaml")}, wantCode: 1, wantStderr: "read declaration"},
		{name: "unknown format", args: []string{"resolve", "-d", valid, "--format", "toml"}, wantCode: 2},
		{name: "unknown command", args: []string{"compile"}, wantCode: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("expected exit code %d, got %d (stderr: %s)", tt.wantCode, code, stderr.String())
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Fatalf("expected stderr to contain %q, got %s", tt.wantStderr, stderr.String())
			}
			if tt.wantCode == 0 && stdout.Len() == 0 {
				t.Fatalf("expected configuration on stdout")
			}
		})
	}
}
