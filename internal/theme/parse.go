package theme

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// PathError reports a malformed node in an untyped theme record.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Parse converts an untyped nested record into a Tree.
// Accepted mappings are map[string]any and map[any]any; leaves must be strings.
// Null entries are dropped, the same as omitted ones.
func Parse(v any) (Tree, error) {
	return parseTree("", v)
}

func parseTree(path string, v any) (Tree, error) {
	entries, err := mappingEntries(path, v)
	if err != nil {
		return nil, err
	}

	out := make(Tree, len(entries))
	for _, entry := range entries {
		childPath := joinPath(path, entry.key)
		if err := validateKey(childPath, entry.key); err != nil {
			return nil, err
		}
		if entry.value == nil {
			continue
		}
		value, err := parseValue(childPath, entry.value)
		if err != nil {
			return nil, err
		}
		out[entry.key] = value
	}
	return out, nil
}

func parseValue(path string, v any) (Value, error) {
	switch typed := v.(type) {
	case string:
		return Leaf(typed), nil
	case Leaf:
		return typed, nil
	case Tree:
		return typed.Clone(), nil
	case map[string]any, map[any]any:
		return parseTree(path, typed)
	default:
		return nil, &PathError{Path: path, Reason: fmt.Sprintf("token value must be a string or mapping, got %T", v)}
	}
}

type mappingEntry struct {
	key   string
	value any
}

// mappingEntries flattens a mapping into entries sorted by key so that the first
// error reported for a malformed record is deterministic.
func mappingEntries(path string, v any) ([]mappingEntry, error) {
	var entries []mappingEntry
	switch typed := v.(type) {
	case nil:
		return nil, nil
	case Tree:
		for key, value := range typed {
			entries = append(entries, mappingEntry{key: key, value: value})
		}
	case map[string]any:
		for key, value := range typed {
			entries = append(entries, mappingEntry{key: key, value: value})
		}
	case map[any]any:
		seen := make(map[string]struct{}, len(typed))
		for key, value := range typed {
			name := fmt.Sprint(key)
			if _, dup := seen[name]; dup {
				return nil, &PathError{Path: joinPath(path, name), Reason: "duplicate token name"}
			}
			seen[name] = struct{}{}
			entries = append(entries, mappingEntry{key: name, value: value})
		}
	default:
		return nil, &PathError{Path: path, Reason: fmt.Sprintf("expected a mapping, got %T", v)}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	return entries, nil
}

func validateKey(path, key string) error {
	if key == "" {
		return &PathError{Path: path, Reason: "token name must not be empty"}
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return &PathError{Path: path, Reason: fmt.Sprintf("token name %q must not contain whitespace", key)}
	}
	return nil
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
