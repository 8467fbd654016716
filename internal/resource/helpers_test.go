package resource

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/jobpool"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/specialistvlad/assetgrid/internal/typeregistry"
	"github.com/stretchr/testify/require"
)

// sample is decoded from HCL: `name = "..."`, `deps = [resource("...")]`.
type sample struct {
	Name   string   `hcl:"name,optional"`
	Deps   []string `hcl:"deps,optional"`
	resets *atomic.Int32
}

func (p *sample) Reset() {
	p.Name = ""
	p.Deps = nil
	if p.resets != nil {
		p.resets.Add(1)
	}
}

// scripted runs the function registered for its path.
type scripted struct {
	scripts map[string]func(lc *LoadContext) error
	loads   *atomic.Int32
	body    string
}

func (s *scripted) Reset() { s.body = "" }

func (s *scripted) Load(lc *LoadContext) error {
	s.loads.Add(1)
	s.body = string(lc.Data())
	if fn, ok := s.scripts[lc.Path()]; ok {
		return fn(lc)
	}
	return nil
}

// memo is the creatable type.
type memo struct{ Text string }

func (m *memo) Reset() { m.Text = "" }

type testEnv struct {
	ctx  context.Context
	logs *testutil.SafeBuffer
	fs   *fsutil.FS
	pool *jobpool.Pool
	m    *Manager

	sampleType   *typeregistry.TypeInfo
	scriptedType *typeregistry.TypeInfo
	memoType     *typeregistry.TypeInfo

	resets  atomic.Int32
	loads   atomic.Int32
	gate    chan struct{}
	gateMu  sync.Once
	scripts map[string]func(lc *LoadContext) error
	env     map[string]string
}

type envOption func(*testEnv, *jobpool.Config, *Config)

func withWorkers(n int) envOption {
	return func(_ *testEnv, pc *jobpool.Config, _ *Config) { pc.Workers = n }
}

func withMetrics(metrics *Metrics) envOption {
	return func(_ *testEnv, _ *jobpool.Config, c *Config) { c.Metrics = metrics }
}

func withScript(path string, fn func(lc *LoadContext) error) envOption {
	return func(e *testEnv, _ *jobpool.Config, _ *Config) { e.scripts[path] = fn }
}

func withEnv(name, value string) envOption {
	return func(e *testEnv, _ *jobpool.Config, _ *Config) { e.env[name] = value }
}

// newTestEnv builds a manager over an in-memory filesystem with three types:
// sample (.sample, HCL), scripted (.scr, custom loader) and memo (.memo,
// creatable). Scripts can block on the env gate until openGate is called.
func newTestEnv(t *testing.T, files map[string]string, opts ...envOption) *testEnv {
	t.Helper()
	ctx, logs := testutil.Context(t)
	e := &testEnv{
		ctx:     ctx,
		logs:    logs,
		fs:      testutil.NewFS(t, files),
		gate:    make(chan struct{}),
		scripts: make(map[string]func(lc *LoadContext) error),
		env:     make(map[string]string),
	}

	poolCfg := jobpool.Config{Workers: 4}
	cfg := Config{FS: e.fs}
	for _, opt := range opts {
		opt(e, &poolCfg, &cfg)
	}

	e.sampleType = &typeregistry.TypeInfo{
		Name:       "sample",
		New:        func() typeregistry.Content { return &sample{resets: &e.resets} },
		Extensions: []string{"sample"},
	}
	e.scriptedType = &typeregistry.TypeInfo{
		Name: "scripted",
		New: func() typeregistry.Content {
			return &scripted{scripts: e.scripts, loads: &e.loads}
		},
		Extensions: []string{".scr"},
	}
	e.memoType = &typeregistry.TypeInfo{
		Name:       "memo",
		New:        func() typeregistry.Content { return &memo{} },
		Creatable:  true,
		Extensions: []string{"memo"},
	}
	reg := typeregistry.New()
	reg.Register(e.sampleType)
	reg.Register(e.scriptedType)
	reg.Register(e.memoType)

	e.pool = jobpool.New(ctx, poolCfg)
	t.Cleanup(e.pool.Stop)
	// Runs before the pool stops so no worker is left blocked.
	t.Cleanup(e.openGate)

	cfg.Registry = reg
	cfg.Pool = e.pool
	cfg.LookupEnv = func(name string) (string, bool) {
		v, ok := e.env[name]
		return v, ok
	}
	m, err := New(ctx, cfg)
	require.NoError(t, err)
	e.m = m
	return e
}

func (e *testEnv) openGate() {
	e.gateMu.Do(func() { close(e.gate) })
}

// gated is a script that blocks until the gate opens.
func (e *testEnv) gated(lc *LoadContext) error {
	select {
	case <-e.gate:
		return nil
	case <-lc.Context().Done():
		return lc.Context().Err()
	}
}

// drain waits until no load job is queued or running.
func (e *testEnv) drain() {
	e.pool.HelpWhileWaiting(e.m.inflight)
}

func (e *testEnv) request(t *testing.T, path string) *Handle {
	t.Helper()
	h, err := e.m.Request(path, nil)
	require.NoError(t, err)
	require.NotNil(t, h)
	return h
}

func (e *testEnv) info(path string) (Info, bool) {
	for _, info := range e.m.Snapshot() {
		if info.Path == path {
			return info, true
		}
	}
	return Info{}, false
}
