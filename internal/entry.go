// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/tagsense/internal/analysis"
	"github.com/starford/tagsense/internal/api"
	"github.com/starford/tagsense/internal/lsp"
	"github.com/starford/tagsense/internal/mcpserver"
	"github.com/starford/tagsense/internal/schema"
	"github.com/starford/tagsense/internal/sse"
	"github.com/starford/tagsense/internal/storage"
)

func newApplication(opts []Option, defaultLog io.Writer) (*application, *slog.Logger, error) {
	app := &application{logOutput: defaultLog, version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// LoadSchemas reads the schema file at path. A missing file yields an empty
// registry so the file can be created later and picked up by the watcher.
func LoadSchemas(path string, logger *slog.Logger) (*schema.Registry, error) {
	reg, err := schema.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("schema file not found, starting with no tags", slog.String("path", path))
		return schema.NewRegistry(nil), nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("schemas loaded", slog.String("path", path), slog.Int("tags", reg.Len()))
	return reg, nil
}

// watchSchemas keeps svc on the latest valid schema file until ctx ends.
// Watcher failures are logged; they never stop the host server.
func watchSchemas(ctx context.Context, cfg *Config, svc *analysis.Service, logger *slog.Logger,
	onReload schema.ReloadCallback, onError schema.ErrorCallback,
) {
	err := schema.Watch(ctx, cfg.Schema.Path, logger, func(reg *schema.Registry) {
		svc.SetRegistry(reg)
		if onReload != nil {
			onReload(reg)
		}
	}, onError)
	if err != nil {
		logger.Warn("schema watcher disabled", slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("schema_path", cfg.Schema.Path),
		slog.Bool("schema_watch", cfg.Schema.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	reg, err := LoadSchemas(cfg.Schema.Path, logger)
	if err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	svc := analysis.NewService(reg)

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"tags":   svc.Registry().Len(),
		})
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload schemas on change and tell SSE clients.
	if cfg.Schema.Watch {
		g.Go(func() error {
			watchSchemas(gCtx, cfg, svc, logger,
				func(reg *schema.Registry) { broker.PublishSchemaReload(cfg.Schema.Path, reg.Names()) },
				func(err error) { broker.PublishSchemaError(cfg.Schema.Path, err) },
			)
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Stop the watcher once the server is down.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunLSP serves the language server over in/out until the client exits.
func RunLSP(ctx context.Context, in io.Reader, out io.Writer, opts ...Option) error {
	app, logger, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	cfg := app.config

	reg, err := LoadSchemas(cfg.Schema.Path, logger)
	if err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	svc := analysis.NewService(reg)
	srv := lsp.New(svc, logger, app.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	if cfg.Schema.Watch {
		g.Go(func() error {
			watchSchemas(gCtx, cfg, svc, logger, nil, nil)
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		logger.Info("LSP server starting", slog.String("version", app.version))
		return srv.Serve(gCtx, lsp.Stdio(in, out))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("LSP server stopped")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	cfg := app.config

	reg, err := LoadSchemas(cfg.Schema.Path, logger)
	if err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	svc := analysis.NewService(reg)

	var store storage.Provider
	if cfg.Workspace.Path != "" {
		fs, err := storage.NewFS(cfg.Workspace.Path)
		if err != nil {
			return fmt.Errorf("init workspace: %w", err)
		}
		store = fs
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Schema.Watch {
		go watchSchemas(ctx, cfg, svc, logger, nil, nil)
	}

	logger.Info("MCP server starting",
		slog.String("schema_path", cfg.Schema.Path),
		slog.String("workspace", cfg.Workspace.Path))
	return mcpserver.New(svc, store).ServeStdio()
}
