package declaration

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const yamlDeclaration = `
content:
  - ./src/**/*.{html,js,rs}
darkMode: class
theme:
  extend:
    colors:
      titlebar: "#101010"
      gray:
        100: "#f3f4f6"
plugins: []
`

func TestParseYAML(t *testing.T) {
	got, err := Parse([]byte(yamlDeclaration), FormatYAML)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	want := map[string]any{
		"content":  []any{"./src/**/*.{html,js,rs}"},
		"darkMode": "class",
		"theme": map[string]any{
			"extend": map[string]any{
				"colors": map[string]any{
					"titlebar": "#101010",
					"gray":     map[string]any{"100": "#f3f4f6"},
				},
			},
		},
		"plugins": []any{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected declaration (-want +got):\n%s", diff)
	}
}

func TestParseJSON(t *testing.T) {
	data := []byte(`{"content":["./src/**/*.html"],"darkMode":"media","plugins":["forms"]}`)
	got, err := Parse(data, FormatJSON)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	want := map[string]any{
		"content":  []any{"./src/**/*.html"},
		"darkMode": "media",
		"plugins":  []any{"forms"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected declaration (-want +got):\n%s", diff)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		got, err := Parse([]byte("  \n"), format)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", format, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("%s: expected empty record, got %#v", format, got)
		}
	}

	got, err := Parse([]byte("null"), FormatJSON)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty record for null document, got %v (%v)", got, err)
	}
}

func TestParseErrors(t *testing.T) {
	t.Run("root not a mapping", func(t *testing.T) {
		if _, err := Parse([]byte("- a\n- b\n"), FormatYAML); !errors.Is(err, ErrNotMapping) {
			t.Fatalf("expected ErrNotMapping, got %v", err)
		}
		if _, err := Parse([]byte(`"darkMode"`), FormatJSON); !errors.Is(err, ErrNotMapping) {
			t.Fatalf("expected ErrNotMapping, got %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := Parse([]byte("{"), FormatJSON); err == nil {
			t.Fatalf("expected JSON syntax error")
		}
		if _, err := Parse([]byte("content: [a"), FormatYAML); err == nil {
			t.Fatalf("expected YAML syntax error")
		}
	})

	t.Run("keys colliding once stringified", func(t *testing.T) {
		record := map[string]any{
			"theme": map[string]any{"extend": map[string]any{
				"colors": map[any]any{1: "#111111", "1": "#222222"},
			}},
		}
		for range 20 {
			_, err := normalize("", record)
			if !errors.Is(err, ErrDuplicateKey) {
				t.Fatalf("expected ErrDuplicateKey, got %v", err)
			}
			if !strings.Contains(err.Error(), "theme.extend.colors.1") {
				t.Fatalf("expected error to name the key path, got %v", err)
			}
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := Parse([]byte("a: b"), Format("toml")); err == nil {
			t.Fatalf("expected error for unsupported format")
		}
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "stylecfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlDeclaration), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	decl, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if decl["darkMode"] != "class" {
		t.Fatalf("expected darkMode class, got %v", decl["darkMode"])
	}

	jsonPath := filepath.Join(dir, "stylecfg.JSON")
	if err := os.WriteFile(jsonPath, []byte(`{"darkMode":"media"}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	decl, err = Load(jsonPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if decl["darkMode"] != "media" {
		t.Fatalf("expected darkMode media, got %v", decl["darkMode"])
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"stylecfg.json": FormatJSON,
		"stylecfg.yaml": FormatYAML,
		"stylecfg.yml":  FormatYAML,
		"stylecfg":      FormatYAML,
	}
	for path, want := range cases {
		if got := FormatFromPath(path); got != want {
			t.Fatalf("%s: expected %s, got %s", path, want, got)
		}
	}
}
