package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/vk/ocfltools/internal/config"
	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/metrics"
	"github.com/vk/ocfltools/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	ctx        context.Context
	logger     *slog.Logger
	config     *Config
	catalog    *registry.Catalog
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the domain
// definitions, registers the modules and checks the registry. Every logger
// of the App carries a fresh run_id. Without modules, the core modules are
// registered.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW).With("run_id", uuid.NewString())
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loadDefinitions(ctx, loader, cfg.DomainsPath)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	reg.RegisterModules(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.MergeDefinitions(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to apply domain definitions: %w", err)
	}

	catalog, err := reg.Ready(ctx)
	if err != nil {
		return nil, err
	}

	return &App{
		outW:    outW,
		ctx:     ctx,
		logger:  logger,
		config:  cfg,
		catalog: catalog,
		metrics: metrics.New(),
	}, nil
}

// Catalog returns the checked registry. This is primarily for testing.
func (a *App) Catalog() *registry.Catalog {
	return a.catalog
}

// Metrics returns the collectors of the App.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// withRun returns ctx carrying the App's logger.
func (a *App) withRun(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
