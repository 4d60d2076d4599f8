// Package config loads runtime settings of the stylecfg tool from multiple sources
// (YAML files, environment variables, CLI flags) with precedence: CLI flags > YAML
// config > Environment variables > Defaults. These settings drive the preview
// server and watcher; the utility-CSS declaration itself is handled by the
// declaration and resolver packages.
package config
