// Package application provides application initialization and dependency wiring.
// It resolves the declaration at startup, seeds the configuration storage, and
// builds the preview router, HTTP server and optional declaration watcher, so
// the main package stays focused on CLI parsing and orchestration.
package application
