// Package declaration reads the static utility-CSS declaration file (JSON or
// YAML) into the untyped record the resolver consumes.
package declaration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a declaration payload.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrNotMapping is returned when the document root is not a mapping.
	ErrNotMapping = errors.New("declaration root must be a mapping")
	// ErrDuplicateKey is returned when two keys of one mapping stringify to the same name.
	ErrDuplicateKey = errors.New("duplicate key")
)

// FormatFromPath picks the format by file extension. Anything other than .json is read as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads and parses the declaration at path.
func Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declaration: %w", err)
	}

	decl, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return decl, nil
}

// Parse decodes data in the given format. An empty document yields an empty record.
func Parse(data []byte, format Format) (map[string]any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}

	var root any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported declaration format %q", format)
	}

	if root == nil {
		return map[string]any{}, nil
	}

	normalized, err := normalize("", root)
	if err != nil {
		return nil, err
	}
	decl, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w, got %T", ErrNotMapping, root)
	}
	return decl, nil
}

// normalize rewrites map[any]any nodes (YAML mappings with non-string keys)
// into map[string]any so that every mapping in the record has the same shape.
// Keys that collide once stringified, such as 1 and "1", are rejected.
func normalize(path string, v any) (any, error) {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			n, err := normalize(joinKey(path, key), value)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			name := fmt.Sprint(key)
			if _, dup := out[name]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, joinKey(path, name))
			}
			n, err := normalize(joinKey(path, name), value)
			if err != nil {
				return nil, err
			}
			out[name] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			n, err := normalize(fmt.Sprintf("%s[%d]", path, i), value)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}

func joinKey(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
