// Package resourcetest builds a ready-to-use resource manager for tests of
// packages that contribute resource types.
package resourcetest

import (
	"context"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/jobpool"
	"github.com/specialistvlad/assetgrid/internal/resource"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/specialistvlad/assetgrid/internal/typeregistry"
	"github.com/stretchr/testify/require"
)

// Env is a manager over an in-memory filesystem.
type Env struct {
	Ctx      context.Context
	Logs     *testutil.SafeBuffer
	FS       *fsutil.FS
	Registry *typeregistry.Registry
	Pool     *jobpool.Pool
	Manager  *resource.Manager
	// Vars backs the env() payload function. Set entries before loading.
	Vars map[string]string
}

// New registers modules and starts a manager with a small pool. The pool
// includes an "io" queue. Everything is torn down when the test ends.
func New(t *testing.T, files map[string]string, modules ...typeregistry.Module) *Env {
	t.Helper()
	ctx, logs := testutil.Context(t)

	reg := typeregistry.New()
	reg.RegisterModules(modules...)

	pool := jobpool.New(ctx, jobpool.Config{Workers: 2, Tags: map[string]int{"io": 1}})
	t.Cleanup(pool.Stop)

	e := &Env{
		Ctx:      ctx,
		Logs:     logs,
		FS:       testutil.NewFS(t, files),
		Registry: reg,
		Pool:     pool,
		Vars:     make(map[string]string),
	}
	m, err := resource.New(ctx, resource.Config{
		Registry: reg,
		FS:       e.FS,
		Pool:     pool,
		LookupEnv: func(name string) (string, bool) {
			v, ok := e.Vars[name]
			return v, ok
		},
	})
	require.NoError(t, err)
	e.Manager = m
	return e
}

// Load requests path, waits for it and returns the handle, which the test
// must release. It does not require the load to succeed.
func (e *Env) Load(t *testing.T, path string) *resource.Handle {
	t.Helper()
	h, err := e.Manager.Request(path, nil)
	require.NoError(t, err)
	e.Manager.Wait(e.Ctx, h)
	return h
}

// MustLoad is Load that fails the test unless the resource is Loaded.
func (e *Env) MustLoad(t *testing.T, path string) *resource.Handle {
	t.Helper()
	h := e.Load(t, path)
	require.True(t, h.IsLoaded(), "resource %s did not load: %v", path, h.Err())
	return h
}
