package resolver

import (
	"encoding/json"
	"fmt"

	"github.com/eugenenazirov/stylecfg/internal/theme"
)

// DarkMode selects how a consuming application activates dark styling.
type DarkMode string

const (
	// DarkModeMedia follows the operating system colour-scheme preference.
	DarkModeMedia DarkMode = "media"
	// DarkModeClass activates dark styling through a marker class set by the application.
	DarkModeClass DarkMode = "class"
)

// Valid reports whether m is a recognised strategy.
func (m DarkMode) Valid() bool {
	return m == DarkModeMedia || m == DarkModeClass
}

// Plugin is an opaque plugin reference handed to the generator as declared.
type Plugin struct {
	Ref any
}

// Name returns a short label for the plugin, used in logs.
func (p Plugin) Name() string {
	switch ref := p.Ref.(type) {
	case string:
		return ref
	case map[string]any:
		if name, ok := ref["name"].(string); ok {
			return name
		}
	}
	return fmt.Sprintf("%T", p.Ref)
}

// MarshalJSON encodes the plugin as its raw reference.
func (p Plugin) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Ref)
}

// MarshalYAML encodes the plugin as its raw reference.
func (p Plugin) MarshalYAML() (any, error) {
	return p.Ref, nil
}

// Configuration is a fully resolved declaration. Every field is populated.
type Configuration struct {
	Content        []string   `json:"content" yaml:"content"`
	DarkMode       DarkMode   `json:"darkMode" yaml:"darkMode"`
	ThemeOverrides theme.Tree `json:"themeOverrides" yaml:"themeOverrides"`
	Theme          theme.Tree `json:"theme" yaml:"theme"`
	Plugins        []Plugin   `json:"plugins" yaml:"plugins"`
}

// Resolver turns a partial declaration into a Configuration.
type Resolver interface {
	Resolve(decl map[string]any) (Configuration, error)
}

// Top-level declaration keys.
const (
	fieldContent  = "content"
	fieldDarkMode = "darkMode"
	fieldTheme    = "theme"
	fieldExtend   = "extend"
	fieldPlugins  = "plugins"
)

// Clone returns a deep copy. Plugin references are copied as-is since they are opaque.
func (c Configuration) Clone() Configuration {
	return Configuration{
		Content:        append([]string{}, c.Content...),
		DarkMode:       c.DarkMode,
		ThemeOverrides: c.ThemeOverrides.Clone(),
		Theme:          c.Theme.Clone(),
		Plugins:        append([]Plugin{}, c.Plugins...),
	}
}
