package resolver

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"

	"dario.cat/mergo"

	"github.com/eugenenazirov/stylecfg/internal/theme"
)

// settings holds the scalar and list fields filled from defaults by mergo.
// The theme is merged separately because it needs the leaf-or-tree rule.
type settings struct {
	Content  []string
	DarkMode DarkMode
	Plugins  []Plugin
}

type mergeResolver struct {
	defaults     settings
	defaultTheme theme.Tree
}

// Option configures a Resolver built by New.
type Option func(*mergeResolver)

// WithDefaultTheme replaces the built-in theme the declaration is merged against.
func WithDefaultTheme(tree theme.Tree) Option {
	return func(r *mergeResolver) {
		r.defaultTheme = tree.Clone()
	}
}

// New creates a Resolver backed by the built-in defaults.
// The returned Resolver never mutates its defaults and is safe for concurrent use.
func New(opts ...Option) Resolver {
	r := &mergeResolver{
		defaults: settings{
			Content:  []string{},
			DarkMode: DarkModeMedia,
			Plugins:  []Plugin{},
		},
		defaultTheme: theme.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *mergeResolver) Resolve(decl map[string]any) (Configuration, error) {
	declared, err := parseSettings(decl)
	if err != nil {
		return Configuration{}, err
	}
	overrides, resolvedTheme, err := r.resolveTheme(decl[fieldTheme])
	if err != nil {
		return Configuration{}, err
	}

	if err := mergo.Merge(&declared, r.defaults); err != nil {
		return Configuration{}, fmt.Errorf("apply defaults: %w", err)
	}

	return Configuration{
		Content:        nonNil(slices.Clone(declared.Content)),
		DarkMode:       declared.DarkMode,
		ThemeOverrides: overrides,
		Theme:          resolvedTheme,
		Plugins:        nonNil(slices.Clone(declared.Plugins)),
	}, nil
}

func parseSettings(decl map[string]any) (settings, error) {
	var out settings

	if raw, ok := present(decl, fieldContent); ok {
		content, err := parseContent(raw)
		if err != nil {
			return settings{}, err
		}
		out.Content = content
	}

	if raw, ok := present(decl, fieldDarkMode); ok {
		mode, err := parseDarkMode(raw)
		if err != nil {
			return settings{}, err
		}
		out.DarkMode = mode
	}

	if raw, ok := present(decl, fieldPlugins); ok {
		plugins, err := parsePlugins(raw)
		if err != nil {
			return settings{}, err
		}
		out.Plugins = plugins
	}

	return out, nil
}

func parseContent(raw any) ([]string, error) {
	var items []any
	switch typed := raw.(type) {
	case []string:
		for _, s := range typed {
			items = append(items, s)
		}
	case []any:
		items = typed
	default:
		return nil, &SchemaError{Field: fieldContent, Value: raw, Reason: "must be a list of glob strings"}
	}

	globs := make([]string, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("%s[%d]", fieldContent, i)
		glob, ok := item.(string)
		if !ok {
			return nil, &SchemaError{Field: field, Value: item, Reason: "glob must be a string"}
		}
		if glob == "" {
			return nil, &SchemaError{Field: field, Reason: "glob must not be empty"}
		}
		globs = append(globs, glob)
	}
	return globs, nil
}

func parseDarkMode(raw any) (DarkMode, error) {
	var mode DarkMode
	switch typed := raw.(type) {
	case string:
		mode = DarkMode(typed)
	case DarkMode:
		mode = typed
	default:
		return "", &SchemaError{Field: fieldDarkMode, Value: raw, Reason: "must be a string"}
	}
	if !mode.Valid() {
		return "", &SchemaError{
			Field:  fieldDarkMode,
			Value:  string(mode),
			Reason: fmt.Sprintf("unsupported strategy, expected %q or %q", DarkModeMedia, DarkModeClass),
		}
	}
	return mode, nil
}

// parsePlugins accepts a list of any element type. Entries are wrapped, not inspected.
func parsePlugins(raw any) ([]Plugin, error) {
	switch typed := raw.(type) {
	case []any:
		plugins := make([]Plugin, 0, len(typed))
		for _, item := range typed {
			plugins = append(plugins, Plugin{Ref: item})
		}
		return plugins, nil
	case []Plugin:
		return slices.Clone(typed), nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, &SchemaError{Field: fieldPlugins, Value: raw, Reason: "must be a list"}
	}
	plugins := make([]Plugin, 0, rv.Len())
	for i := range rv.Len() {
		plugins = append(plugins, Plugin{Ref: rv.Index(i).Interface()})
	}
	return plugins, nil
}

// resolveTheme returns the declared extension tree and the merged theme.
// Category keys outside "extend" replace the default category before the
// extension is merged in.
func (r *mergeResolver) resolveTheme(raw any) (theme.Tree, theme.Tree, error) {
	if raw == nil {
		return theme.Tree{}, r.defaultTheme.Clone(), nil
	}

	declared, err := theme.Parse(raw)
	if err != nil {
		return nil, nil, themeSchemaError(err)
	}

	base := r.defaultTheme.Clone()
	for _, key := range declared.Keys() {
		if key == fieldExtend {
			continue
		}
		base[key] = declared[key]
	}

	extend := theme.Tree{}
	if value, ok := declared[fieldExtend]; ok {
		tree, isTree := value.(theme.Tree)
		if !isTree {
			return nil, nil, &SchemaError{
				Field:  fieldTheme + "." + fieldExtend,
				Value:  value,
				Reason: "must be a mapping of token categories",
			}
		}
		extend = tree
	}

	return extend, theme.Merge(base, extend), nil
}

func themeSchemaError(err error) error {
	var pathErr *theme.PathError
	if !errors.As(err, &pathErr) {
		return &SchemaError{Field: fieldTheme, Reason: err.Error()}
	}
	field := fieldTheme
	if pathErr.Path != "" {
		field += "." + pathErr.Path
	}
	return &SchemaError{Field: field, Reason: pathErr.Reason}
}

// UnknownFields lists top-level declaration keys the resolver does not read.
func UnknownFields(decl map[string]any) []string {
	var unknown []string
	for key := range decl {
		switch key {
		case fieldContent, fieldDarkMode, fieldTheme, fieldPlugins:
		default:
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// present treats explicit nulls the same as omitted fields.
func present(decl map[string]any, key string) (any, bool) {
	raw, ok := decl[key]
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
