package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/stylecfg/internal/api"
	"github.com/eugenenazirov/stylecfg/internal/config"
	"github.com/eugenenazirov/stylecfg/internal/declaration"
	"github.com/eugenenazirov/stylecfg/internal/resolver"
	"github.com/eugenenazirov/stylecfg/internal/storage"
	"github.com/eugenenazirov/stylecfg/internal/watch"
)

// ErrNothingToWatch is returned when watch mode is enabled but no declaration
// path was configured or discovered.
var ErrNothingToWatch = errors.New("watch mode requires a declaration file")

// DeclarationFileNames are the well-known declaration names searched for when
// no explicit path is configured, in order of preference.
var DeclarationFileNames = []string{"stylecfg.yaml", "stylecfg.yml", "stylecfg.json"}

// App encapsulates the application dependencies and HTTP server.
type App struct {
	resolver        resolver.Resolver
	storage         storage.Storage
	handler         *api.Handler
	router          http.Handler
	watcher         *watch.Watcher
	logger          *zap.Logger
	server          *http.Server
	declarationPath string

	cancel context.CancelFunc
	done   chan struct{}
}

// New initializes the application from the provided configuration. The
// declaration is resolved once up front so that a schema error aborts startup.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	path := cfg.DeclarationPath
	if path == "" {
		discovered, err := DiscoverDeclaration()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("discover declaration: %w", err)
		}
		path = discovered
	}
	if cfg.Watch && path == "" {
		return nil, fmt.Errorf("%w: none configured and none of %s found", ErrNothingToWatch, strings.Join(DeclarationFileNames, ", "))
	}

	app := &App{
		resolver:        resolver.New(),
		storage:         storage.NewMemoryStorage(),
		logger:          logger,
		declarationPath: path,
	}

	if err := app.Reload(); err != nil {
		return nil, fmt.Errorf("failed to resolve declaration: %w", err)
	}

	app.handler = api.NewHandler(app.resolver, app.storage)
	app.router = api.NewRouter(app.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	app.server = NewServer(cfg, app.router)

	if cfg.Watch {
		app.watcher = watch.New(path, app.Reload, logger, watch.WithDebounce(cfg.WatchDebounce))
	}

	return app, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Reload re-reads the declaration and replaces the served configuration. On
// error the previous configuration stays in place.
func (a *App) Reload() error {
	cfg, unknown, err := ResolveFile(a.resolver, a.declarationPath)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		a.logger.Warn("ignoring unknown declaration fields",
			zap.String("path", a.declarationPath),
			zap.Strings("fields", unknown),
		)
	}
	if err := a.storage.Set(cfg); err != nil {
		return fmt.Errorf("store configuration: %w", err)
	}

	a.logger.Info("configuration resolved",
		zap.String("path", a.declarationPath),
		zap.String("dark_mode", string(cfg.DarkMode)),
		zap.Int("content_globs", len(cfg.Content)),
		zap.Int("plugins", len(cfg.Plugins)),
	)
	return nil
}

// Start starts the HTTP server and, when enabled, the declaration watcher.
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})

	if a.watcher != nil {
		go func() {
			defer close(a.done)
			if err := a.watcher.Run(ctx); err != nil {
				a.logger.Error("declaration watcher failed", zap.Error(err))
			}
		}()
	} else {
		close(a.done)
	}

	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop cancels the watcher and waits for it to exit. The HTTP server is shut
// down separately through Server.
func (a *App) Stop() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Storage returns the storage holding the served configuration.
func (a *App) Storage() storage.Storage {
	return a.storage
}

// ResolveFile loads the declaration at path and resolves it. An empty path
// resolves an empty declaration, yielding the built-in defaults. The second
// return value lists top-level fields the resolver ignored.
func ResolveFile(res resolver.Resolver, path string) (resolver.Configuration, []string, error) {
	decl := map[string]any{}
	if path != "" {
		loaded, err := declaration.Load(path)
		if err != nil {
			return resolver.Configuration{}, nil, err
		}
		decl = loaded
	}

	cfg, err := res.Resolve(decl)
	if err != nil {
		return resolver.Configuration{}, nil, err
	}
	return cfg, resolver.UnknownFields(decl), nil
}

// DiscoverDeclaration looks for a well-known declaration file in the working
// directory and its parents. It returns an error wrapping os.ErrNotExist when
// none is found.
func DiscoverDeclaration() (string, error) {
	for _, name := range DeclarationFileNames {
		path, err := resolveProjectPath(name)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no declaration found (looked for %s): %w", strings.Join(DeclarationFileNames, ", "), os.ErrNotExist)
}

// resolveProjectPath locates a file relative to the project root by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s: %w", relative, os.ErrNotExist)
}
