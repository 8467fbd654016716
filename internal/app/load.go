package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/resource"
	"golang.org/x/sync/errgroup"
)

// ErrLoadFailed is returned by Load when at least one resource was rejected
// or failed to load. The results are still returned.
var ErrLoadFailed = errors.New("one or more resources failed to load")

// Result is the outcome of loading one requested path.
type Result struct {
	Path         string
	Type         string
	Status       string
	Dependencies int
	Duration     time.Duration
	Err          error
}

// Failed reports whether the path was rejected or failed to load.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Load requests every path (or, with none, every file under the root with a
// registered extension), waits until all of them are terminal, releases them
// and returns one Result per path in input order.
func (a *App) Load(ctx context.Context, paths []string) ([]Result, error) {
	logger := a.logger
	if len(paths) == 0 {
		found, err := a.discover()
		if err != nil {
			return nil, err
		}
		paths = found
	}
	if len(paths) == 0 {
		logger.Warn("No resources found.", "root", a.config.RootPath)
		return nil, nil
	}
	logger.Info("Loading resources.", "count", len(paths))

	start := time.Now()
	handles := make([]*resource.Handle, len(paths))
	rejected := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(a.config.Workers)
	for i, p := range paths {
		g.Go(func() error {
			h, err := a.manager.RequestPath(p)
			if err != nil {
				rejected[i] = err
				return nil
			}
			handles[i] = h
			return nil
		})
	}
	_ = g.Wait()

	live := make([]*resource.Handle, 0, len(handles))
	for _, h := range handles {
		if h != nil {
			live = append(live, h)
		}
	}
	defer func() {
		for _, h := range live {
			h.Release()
		}
		a.manager.Tick()
	}()

	if err := a.waitAll(ctx, live); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	results := make([]Result, len(paths))
	failed := false
	for i, p := range paths {
		if rejected[i] != nil {
			results[i] = Result{Path: p, Status: "rejected", Err: rejected[i]}
			failed = true
			continue
		}
		h := handles[i]
		results[i] = Result{
			Path:         h.Path(),
			Type:         h.Type().Name,
			Status:       h.State().String(),
			Dependencies: len(h.Dependencies()),
			Duration:     elapsed,
			Err:          h.Err(),
		}
		if h.HasFailed() {
			failed = true
		}
	}

	logger.Info("Resources loaded.", "count", len(paths), "duration", elapsed)
	if failed {
		return results, ErrLoadFailed
	}
	return results, nil
}

// waitAll ticks the manager until a callback over handles fires or the
// configured timeout expires.
func (a *App) waitAll(ctx context.Context, handles []*resource.Handle) error {
	done := make(chan struct{})
	id := a.manager.RegisterCallback(handles, func([]*resource.Handle) { close(done) })

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			a.manager.RemoveCallback(id)
			return fmt.Errorf("waiting for %d resources: %w", len(handles), ctx.Err())
		case <-ticker.C:
			a.manager.Tick()
		}
	}
}

// discover lists every file under the root whose extension is registered.
func (a *App) discover() ([]string, error) {
	var exts []string
	for _, t := range a.registry.All() {
		exts = append(exts, t.Extensions...)
	}
	if len(exts) == 0 {
		return nil, nil
	}
	files, err := fsutil.FindFilesByExtension(a.fs.Afero(), ".", exts...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", a.config.RootPath, err)
	}
	a.logger.Debug("Discovered resources.", "count", len(files))
	return files, nil
}
