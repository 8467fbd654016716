package app

import (
	"context"

	"github.com/specialistvlad/assetgrid/internal/resource"
)

// Serve keeps paths loaded and pumps the manager until ctx is cancelled,
// exposing the debug server when a port is configured.
func (a *App) Serve(ctx context.Context, paths []string) error {
	a.startDebugServer()
	defer a.stopDebugServer()

	var held []*resource.Handle
	defer func() {
		for _, h := range held {
			h.Release()
		}
		a.manager.Tick()
	}()
	for _, p := range paths {
		h, err := a.manager.RequestPath(p)
		if err != nil {
			return err
		}
		held = append(held, h)
	}

	a.manager.RegisterCallback(held, func(hs []*resource.Handle) {
		for _, h := range hs {
			if h.HasFailed() {
				a.logger.Warn("Resource failed to load.", "path", h.Path(), "error", h.Err())
			}
		}
		a.logger.Info("Initial resources ready.", "count", len(hs))
	})

	a.logger.Info("Serving.", "tick_interval", a.config.TickInterval)
	a.manager.Run(ctx, a.config.TickInterval)
	a.logger.Info("Shutting down.")
	return nil
}
