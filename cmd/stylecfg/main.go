package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/stylecfg/internal/application"
	"github.com/eugenenazirov/stylecfg/internal/config"
	"github.com/eugenenazirov/stylecfg/internal/logging"
	"github.com/eugenenazirov/stylecfg/internal/resolver"
)

var signalNotify = signal.Notify

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	kingpinApp := kingpin.New("stylecfg", "Style configuration resolver - merges a utility-CSS declaration with the built-in theme")
	kingpinApp.UsageWriter(stderr)
	kingpinApp.ErrorWriter(stderr)
	configFile := kingpinApp.Flag("config", "Path to YAML service configuration file").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()

	resolveCmd := kingpinApp.Command("resolve", "Resolve a declaration and print the effective configuration")
	resolveDecl := resolveCmd.Flag("declaration", "Path to the declaration file (discovered when omitted)").Short('d').String()
	resolveFormat := resolveCmd.Flag("format", "Output format").Default(formatJSON).Enum(formatJSON, formatYAML)

	serveCmd := kingpinApp.Command("serve", "Serve the resolved configuration over HTTP")
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	serveDecl := serveCmd.Flag("declaration", "Path to the declaration file (discovered when omitted)").String()
	var watchSet bool
	watch := serveCmd.Flag("watch", "Re-resolve the declaration when it changes").IsSetByUser(&watchSet).Bool()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command, err := kingpinApp.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "stylecfg: %v\n", err)
		return 2
	}

	switch command {
	case resolveCmd.FullCommand():
		overrides := &config.CLIOverrides{
			ConfigFile: *configFile,
		}
		if *resolveDecl != "" {
			overrides.DeclarationPath = resolveDecl
		}
		if *logLevel != "" {
			overrides.LogLevel = logLevel
		}
		cfg, err := config.Load(overrides)
		if err != nil {
			fmt.Fprintf(stderr, "stylecfg: failed to load configuration: %v\n", err)
			return 2
		}
		logger, err := logging.New(cfg.LogLevel)
		if err != nil {
			fmt.Fprintf(stderr, "stylecfg: failed to initialize logger: %v\n", err)
			return 2
		}
		defer func() {
			_ = logger.Sync()
		}()
		if err := runResolve(stdout, logger, cfg.DeclarationPath, *resolveFormat); err != nil {
			fmt.Fprintf(stderr, "stylecfg: %v\n", err)
			return 1
		}
		return 0

	case serveCmd.FullCommand():
		overrides := &config.CLIOverrides{
			ConfigFile: *configFile,
		}
		if *port != "" {
			overrides.Port = port
		}
		if *serveDecl != "" {
			overrides.DeclarationPath = serveDecl
		}
		if watchSet {
			overrides.Watch = watch
		}
		if *logLevel != "" {
			overrides.LogLevel = logLevel
		}
		if *rateLimitRPSFlag >= 0 {
			overrides.RateLimitRPS = rateLimitRPSFlag
		}
		if *rateLimitBurstFlag >= 0 {
			overrides.RateLimitBurst = rateLimitBurstFlag
		}
		return runServe(overrides, stderr)
	}

	return 2
}

// runResolve resolves the declaration at path, or the discovered one when
// path is empty, and writes the effective configuration to w.
func runResolve(w io.Writer, logger *zap.Logger, path, format string) error {
	if path == "" {
		discovered, err := application.DiscoverDeclaration()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		path = discovered
	}

	cfg, unknown, err := application.ResolveFile(resolver.New(), path)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		logger.Warn("ignoring unknown declaration fields",
			zap.String("path", path),
			zap.Strings("fields", unknown),
		)
	}

	return writeConfiguration(w, cfg, format)
}

func writeConfiguration(w io.Writer, cfg resolver.Configuration, format string) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case formatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func runServe(overrides *config.CLIOverrides, stderr io.Writer) int {
	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(stderr, "stylecfg: failed to load configuration: %v\n", err)
		return 2
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "stylecfg: failed to initialize logger: %v\n", err)
		return 2
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return 1
	}

	if err := app.Start(); err != nil {
		logger.Error("failed to start server", zap.Error(err))
		return 1
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	app.Stop()
	return 0
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
