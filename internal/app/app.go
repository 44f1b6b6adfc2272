package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/toolwrap/internal/catalog"
	"github.com/specialistvlad/toolwrap/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	errW    io.Writer
	logger  *slog.Logger
	catalog *catalog.Catalog
	config  *Config
}

// NewApp is the constructor for the main application. Command output goes to
// outW; logs and captured tool stderr go to errW. The built-in catalog and
// every configured catalog path are loaded before NewApp returns.
func NewApp(outW, errW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cat, err := catalog.Load(ctx, cfg.CatalogPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Debug("Catalog ready.", "tools", cat.Names())

	return &App{
		outW:    outW,
		errW:    errW,
		logger:  logger,
		catalog: cat,
		config:  cfg,
	}, nil
}

// Catalog returns the application's catalog. This is primarily for testing.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Context returns ctx carrying the application's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
