// Package api exposes a read-only preview of the resolved utility-CSS
// configuration over HTTP for dev-server use: the served configuration, single
// theme tokens, and a dry-run resolve endpoint.
package api
