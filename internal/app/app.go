package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/specialistvlad/contractgrid/internal/canvas"
	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/emit"
	"github.com/specialistvlad/contractgrid/internal/pipeline"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx      context.Context
	logger   *slog.Logger
	config   *Config
	catalog  *catalog.Catalog
	header   emit.Header
	compiler *pipeline.Compiler

	httpServer *http.Server // health check
}

// NewApp is the constructor for the main application. Logs are written to
// logW; the catalog and project file named by cfg are loaded eagerly.
func NewApp(ctx context.Context, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	cat := catalog.Default()
	if cfg.CatalogDir != "" {
		var err error
		cat, err = catalog.LoadDir(ctx, cfg.CatalogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	logger.Debug("Catalog ready.", "templates", len(cat.Templates()))

	header, err := LoadProject(ctx, cfg.ProjectFile)
	if err != nil {
		return nil, err
	}

	var opts []pipeline.Option
	if cfg.CacheSize > 0 {
		opts = append(opts, pipeline.WithCacheSize(cfg.CacheSize))
	}

	return &App{
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		catalog:  cat,
		header:   header,
		compiler: pipeline.NewCompiler(cat, opts...),
	}, nil
}

// Catalog returns the catalog the app compiles against.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Header returns the contract header read from the project file.
func (a *App) Header() emit.Header {
	return a.header
}

// Compile loads the canvas at path and runs it through the pipeline.
func (a *App) Compile(ctx context.Context, path string) (*pipeline.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	state, err := canvas.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return a.CompileState(ctx, state)
}

// CompileState runs an already loaded canvas through the pipeline.
func (a *App) CompileState(ctx context.Context, state *canvas.State) (*pipeline.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	start := time.Now()
	res, err := a.compiler.Compile(ctx, state, a.header)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Canvas compiled.",
		"status", res.Status,
		"instances", len(state.Instances),
		"errors", len(res.Diagnostics.Errors()),
		"warnings", len(res.Diagnostics.Warnings()),
		"duration", time.Since(start),
	)
	return res, nil
}
