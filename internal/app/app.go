package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/jobpool"
	"github.com/specialistvlad/assetgrid/internal/resource"
	"github.com/specialistvlad/assetgrid/internal/typeregistry"
	"github.com/specialistvlad/assetgrid/modules/text"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	ctx      context.Context
	logger   *slog.Logger
	config   *Config
	registry *typeregistry.Registry
	fs       *fsutil.FS
	pool     *jobpool.Pool
	metrics  *prometheus.Registry
	manager  *resource.Manager

	httpServer *http.Server
}

// NewApp builds a fully wired App. With no modules the core modules are used.
// Two types claiming one extension is a programmer error and panics.
func NewApp(outW io.Writer, cfg *Config, modules ...typeregistry.Module) *App {
	return newApp(outW, cfg, fsutil.NewOS(cfg.RootPath), modules...)
}

func newApp(outW io.Writer, cfg *Config, fs *fsutil.FS, modules ...typeregistry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := typeregistry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	reg.RegisterModules(modules...)
	logger.Debug("All resource modules registered.", "count", len(modules))

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())

	pool := jobpool.New(ctx, jobpool.Config{
		Workers: cfg.Workers,
		Tags:    map[string]int{text.PoolTag: cfg.IOWorkers},
	})

	manager, err := resource.New(ctx, resource.Config{
		Registry: reg,
		FS:       fs,
		Pool:     pool,
		Metrics:  resource.NewMetrics(promReg),
	})
	if err != nil {
		pool.Stop()
		panic(fmt.Errorf("failed to create resource manager: %w", err))
	}

	return &App{
		outW:     outW,
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		registry: reg,
		fs:       fs,
		pool:     pool,
		metrics:  promReg,
		manager:  manager,
	}
}

// Manager returns the application's resource manager.
func (a *App) Manager() *resource.Manager {
	return a.manager
}

// Registry returns the application's type registry.
func (a *App) Registry() *typeregistry.Registry {
	return a.registry
}

// Close shuts the manager and the job pool down and reports leaked resources.
func (a *App) Close() int {
	leaked := a.manager.Close(a.ctx)
	a.pool.Stop()
	a.logger.Debug("App closed.", "leaked", leaked)
	return leaked
}
