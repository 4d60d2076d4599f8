// Package resolver validates a user's utility-CSS declaration (content globs,
// dark-mode strategy, theme extension, plugins) and merges it against built-in
// defaults into a fully populated Configuration for the class generator.
//
// Resolution is a pure function of the declaration and the defaults: nothing
// is mutated, so one Resolver may serve any number of concurrent callers.
package resolver
