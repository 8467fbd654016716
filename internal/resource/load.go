package resource

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/assetgrid/internal/hclcodec"
	"github.com/specialistvlad/assetgrid/internal/jobpool"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Loader is implemented by payloads that deserialize themselves. Payloads
// without it are decoded as HCL into their `hcl`-tagged fields.
type Loader interface {
	Load(lc *LoadContext) error
}

// LoadContext is handed to a payload while its load job runs. It gives access
// to the raw bytes and lets the payload declare dependencies.
type LoadContext struct {
	ctx      context.Context
	manager  *Manager
	resource *Resource
	data     []byte

	deps []*Handle
	seen map[*Resource]struct{}
}

// Context returns the job context.
func (lc *LoadContext) Context() context.Context { return lc.ctx }

// Path returns the normalized path being loaded.
func (lc *LoadContext) Path() string { return lc.resource.key.path }

// Data returns the file contents.
func (lc *LoadContext) Data() []byte { return lc.data }

// Require declares a dependency on the resource at path and requests its load.
// The resource being loaded becomes Loaded only after every required resource
// has, and Failed if any of them fails. Requiring the same resource twice
// returns the first handle. The returned handle is owned by the resource.
func (lc *LoadContext) Require(path string) (*Handle, error) {
	key := NewKey(path)
	if key == lc.resource.key {
		return nil, fmt.Errorf("%w: %s requires itself", ErrDependencyCycle, key.path)
	}
	// In-flight loads still resolve dependencies while the manager closes.
	h, err := lc.manager.acquire(path, nil, true)
	if err != nil {
		return nil, err
	}
	if _, dup := lc.seen[h.res]; dup {
		h.Release()
		for _, d := range lc.deps {
			if d.res == h.res {
				return d, nil
			}
		}
	}
	if lc.seen == nil {
		lc.seen = make(map[*Resource]struct{})
	}
	lc.seen[h.res] = struct{}{}
	lc.deps = append(lc.deps, h)
	return h, nil
}

// EvalContext returns the expression context for this load: the standard
// functions, `resource(path)` bound to Require, `env(name[, default])`, plus
// extra.
func (lc *LoadContext) EvalContext(extra map[string]function.Function) *hcl.EvalContext {
	funcs := map[string]function.Function{
		"resource": hclcodec.ResourceFunc(func(path string) (string, error) {
			h, err := lc.Require(path)
			if err != nil {
				return "", err
			}
			return h.Path(), nil
		}),
		"env": hclcodec.EnvFunc(lc.manager.lookupEnv),
	}
	for name, fn := range extra {
		funcs[name] = fn
	}
	return hclcodec.NewEvalContext(funcs)
}

// Source returns the file as a codec source.
func (lc *LoadContext) Source() hclcodec.Source {
	return hclcodec.Source{Filename: lc.resource.key.path, Data: lc.data}
}

// Decode decodes the file into target, checking the type's schema header.
func (lc *LoadContext) Decode(target any) error {
	return hclcodec.Decode(lc.Source(), lc.resource.typ.Schema, target, lc.EvalContext(nil))
}

// Attributes evaluates every top-level attribute of the file.
func (lc *LoadContext) Attributes() (map[string]cty.Value, error) {
	return hclcodec.Attributes(lc.Source(), lc.resource.typ.Schema, lc.EvalContext(nil))
}

func (lc *LoadContext) releaseDependencies() {
	for _, d := range lc.deps {
		d.Release()
	}
	lc.deps = nil
}

func (m *Manager) submitLoad(r *Resource) {
	job := func(ctx context.Context) { m.load(ctx, r) }
	m.pool.Submit([]jobpool.Job{job}, m.inflight, r.typ.PoolTag)
}

// load is the job body. It never blocks on another resource: dependencies are
// registered with the latch and the last one to finish completes r.
func (m *Manager) load(ctx context.Context, r *Resource) {
	logger := m.logger.With("type", r.typ.Name, "path", r.key.path)
	logger.Debug("Loading resource.")

	lc := &LoadContext{ctx: ctx, manager: m, resource: r}
	if err := m.parse(lc); err != nil {
		lc.releaseDependencies()
		r.failed(err)
		return
	}

	r.setDependencies(lc.deps)
	m.graphMu.Lock()
	for _, d := range lc.deps {
		if d.res.tracker.waitsOn(&r.tracker) {
			logger.Error("Dependency cycle detected.", "dependency", d.Path())
			r.tracker.markFailed(fmt.Errorf("%w: %s waits on %s", ErrDependencyCycle, d.Path(), r.key.path))
			continue
		}
		d.res.tracker.addIncomingReference(&r.tracker)
	}
	m.graphMu.Unlock()

	r.tracker.release()
}

// parse reads and decodes the file. A panicking loader or decoder fails the
// resource instead of leaving it Pending.
func (m *Manager) parse(lc *LoadContext) (err error) {
	path := lc.resource.key.path
	defer func() {
		if p := recover(); p != nil {
			m.logger.Error("Resource loader panicked.", "type", lc.resource.typ.Name, "path", path, "panic", p)
			err = fmt.Errorf("%w: %s: panic: %v", ErrParse, path, p)
		}
	}()

	f, err := m.fs.OpenFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFileOpen, path, err)
	}
	data, err := io.ReadAll(f)
	_ = m.fs.CloseFile(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFileOpen, path, err)
	}
	lc.data = data

	if loader, ok := lc.resource.content.(Loader); ok {
		err = loader.Load(lc)
	} else {
		err = lc.Decode(lc.resource.content)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	return nil
}
