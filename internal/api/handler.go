package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eugenenazirov/stylecfg/internal/declaration"
	"github.com/eugenenazirov/stylecfg/internal/resolver"
	"github.com/eugenenazirov/stylecfg/internal/storage"
	"github.com/eugenenazirov/stylecfg/internal/theme"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxDeclarationBytes = 1 << 20

// Handler wires the resolver and storage dependencies into HTTP handlers.
type Handler struct {
	resolver resolver.Resolver
	storage  storage.Storage

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(res resolver.Resolver, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		resolver: res,
		storage:  store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.currentSnapshot(w)
	if !ok {
		return
	}

	etag := snapshotETag(snap)
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	resp := configResponse{
		Configuration: snap.Config,
		UpdatedAt:     snap.UpdatedAt,
		Revision:      snap.Revision,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetToken(w http.ResponseWriter, r *http.Request) {
	raw := strings.Trim(r.PathValue("path"), "/")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Invalid token path", "path must name a token category or token")
		return
	}
	path := strings.Split(raw, "/")

	snap, ok := h.currentSnapshot(w)
	if !ok {
		return
	}

	value, found := snap.Config.Theme.Lookup(path...)
	if !found {
		writeError(w, http.StatusNotFound, "Token not found",
			fmt.Sprintf("no token at %q", strings.Join(path, ".")),
			fmt.Sprintf("available categories: %s", strings.Join(snap.Config.Theme.Keys(), ", ")))
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Path:  strings.Join(path, "."),
		Value: value,
	})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDeclarationBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Invalid request", "declaration payload is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to read declaration body")
		return
	}

	decl, err := declaration.Parse(body, declaration.FormatJSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON declaration")
		return
	}

	cfg, err := h.resolver.Resolve(decl)
	if err != nil {
		var schemaErr *resolver.SchemaError
		if errors.As(err, &schemaErr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "Invalid declaration",
				Field:   schemaErr.Field,
				Details: err.Error(),
			})
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		Configuration: cfg,
		UnknownFields: resolver.UnknownFields(decl),
	})
}

func (h *Handler) currentSnapshot(w http.ResponseWriter) (storage.Snapshot, bool) {
	snap, err := h.storage.Current()
	if err != nil {
		if errors.Is(err, storage.ErrEmpty) {
			writeError(w, http.StatusServiceUnavailable, "Configuration unavailable", err.Error())
			return storage.Snapshot{}, false
		}
		writeInternalError(w, err)
		return storage.Snapshot{}, false
	}
	return snap, true
}

// snapshotETag identifies a stored configuration. Revisions restart with the
// process, so the update time is folded in.
func snapshotETag(snap storage.Snapshot) string {
	return fmt.Sprintf(`W/"%d-%x"`, snap.Revision, snap.UpdatedAt.UnixNano())
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type configResponse struct {
	resolver.Configuration
	UpdatedAt time.Time `json:"updatedAt"`
	Revision  int       `json:"revision"`
}

type resolveResponse struct {
	resolver.Configuration
	UnknownFields []string `json:"unknownFields,omitempty"`
}

type tokenResponse struct {
	Path  string      `json:"path"`
	Value theme.Value `json:"value"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Field      string `json:"field,omitempty"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
