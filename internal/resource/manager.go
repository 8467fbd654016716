package resource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/jobpool"
	"github.com/specialistvlad/assetgrid/internal/typeregistry"
)

// JobPool runs load jobs. *jobpool.Pool implements it.
type JobPool interface {
	Submit(jobs []jobpool.Job, counter *jobpool.Counter, tag string)
	Help() bool
	HelpWhileWaiting(counter *jobpool.Counter)
}

// Config wires a Manager to its collaborators.
type Config struct {
	Registry *typeregistry.Registry
	FS       *fsutil.FS
	Pool     JobPool
	// Metrics may be nil.
	Metrics *Metrics
	// LookupEnv backs the env() payload function. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// WaitPoll bounds how long Wait parks between checks when the pool has
	// nothing to run. Defaults to 10ms.
	WaitPoll time.Duration
}

// Manager owns every resource of every registered type.
type Manager struct {
	logger    *slog.Logger
	fs        *fsutil.FS
	pool      JobPool
	metrics   *Metrics
	lookupEnv func(string) (string, bool)
	waitPoll  time.Duration

	buckets    map[*typeregistry.TypeInfo]*bucket
	types      []*typeregistry.TypeInfo
	extensions map[string]*typeregistry.TypeInfo

	// inflight counts submitted load jobs that have not returned.
	inflight *jobpool.Counter
	// graphMu makes cycle detection and dependency registration atomic.
	graphMu sync.Mutex

	removalMu sync.Mutex
	removals  []*Resource
	unloadMu  sync.Mutex
	unloads   []*Resource

	callbacks callbackRegistry
	closed    atomic.Bool
}

// New builds the manager and its extension map. Two types claiming the same
// extension is an ErrDuplicateExtension.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.Registry == nil || cfg.FS == nil || cfg.Pool == nil {
		return nil, fmt.Errorf("resource manager requires a registry, a filesystem and a job pool")
	}
	if cfg.LookupEnv == nil {
		cfg.LookupEnv = os.LookupEnv
	}
	if cfg.WaitPoll <= 0 {
		cfg.WaitPoll = 10 * time.Millisecond
	}

	m := &Manager{
		logger:     ctxlog.FromContext(ctx),
		fs:         cfg.FS,
		pool:       cfg.Pool,
		metrics:    cfg.Metrics,
		lookupEnv:  cfg.LookupEnv,
		waitPoll:   cfg.WaitPoll,
		buckets:    make(map[*typeregistry.TypeInfo]*bucket),
		extensions: make(map[string]*typeregistry.TypeInfo),
		inflight:   jobpool.NewCounter(),
	}

	for _, ti := range cfg.Registry.All() {
		m.buckets[ti] = newBucket(ti)
		m.types = append(m.types, ti)
		for _, ext := range ti.Extensions {
			if other, dup := m.extensions[ext]; dup {
				return nil, fmt.Errorf("%w: %q claimed by %s and %s", ErrDuplicateExtension, ext, other.Name, ti.Name)
			}
			m.extensions[ext] = ti
		}
	}

	m.logger.Debug("Resource manager created.", "types", len(m.types), "extensions", len(m.extensions))
	return m, nil
}

// TypeFor returns the type registered for the extension of name.
func (m *Manager) TypeFor(name string) (*typeregistry.TypeInfo, bool) {
	ti, ok := m.extensions[extension(NormalizePath(name))]
	return ti, ok
}

// Request returns a handle to the resource at name and asks for it to be
// loaded. typ may be nil to infer it from the extension.
func (m *Manager) Request(name string, typ *typeregistry.TypeInfo) (*Handle, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return m.acquire(name, typ, true)
}

// RequestDeferred returns a handle without requesting a load.
func (m *Manager) RequestDeferred(name string, typ *typeregistry.TypeInfo) (*Handle, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return m.acquire(name, typ, false)
}

// RequestPath is Request with the type inferred from the extension.
func (m *Manager) RequestPath(name string) (*Handle, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return m.acquire(name, nil, true)
}

func (m *Manager) acquire(name string, typ *typeregistry.TypeInfo, load bool) (*Handle, error) {
	key, ti, err := m.resolve(name, typ)
	if err != nil {
		m.logger.Error("Resource request rejected.", "path", name, "type", typ, "error", err)
		return nil, err
	}

	r, created := m.buckets[ti].getOrCreate(key, func() *Resource {
		return newResource(m, key, ti, false)
	})
	if created {
		m.metrics.recordResident(ti.Name, 1)
	}
	m.metrics.recordRequest(ti.Name)

	h := newHandle(r)
	if load {
		h.RequestLoad()
	}
	return h, nil
}

// resolve normalizes name and checks its extension against typ.
func (m *Manager) resolve(name string, typ *typeregistry.TypeInfo) (Key, *typeregistry.TypeInfo, error) {
	key := NewKey(name)
	if key.IsZero() {
		return Key{}, nil, ErrEmptyPath
	}
	ext := extension(key.path)
	ti, ok := m.extensions[ext]
	if !ok {
		return Key{}, nil, fmt.Errorf("%w: %q (%s)", ErrUnknownExtension, ext, key.path)
	}
	if typ != nil && typ != ti {
		return Key{}, nil, fmt.Errorf("%w: %s is %s, requested %s", ErrTypeMismatch, key.path, ti.Name, typ.Name)
	}
	return key, ti, nil
}

// Create builds an in-memory resource of a creatable type. It starts Loaded
// with an empty payload and never touches the filesystem.
func (m *Manager) Create(name string, typ *typeregistry.TypeInfo) (*Handle, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	reject := func(err error) (*Handle, error) {
		m.logger.Error("Resource creation rejected.", "path", name, "type", typ, "error", err)
		return nil, err
	}
	if typ == nil || !typ.Creatable {
		return reject(fmt.Errorf("%w: %s", ErrNotCreatable, typ))
	}
	b, ok := m.buckets[typ]
	if !ok {
		return reject(fmt.Errorf("%w: %s is not registered", ErrNotCreatable, typ.Name))
	}
	key, _, err := m.resolve(name, typ)
	if err != nil {
		return reject(err)
	}

	r := b.create(key, func() *Resource { return newResource(m, key, typ, true) })
	if r == nil {
		return reject(fmt.Errorf("%w: %s/%s", ErrAlreadyExists, typ.Name, key.path))
	}
	m.metrics.recordResident(typ.Name, 1)
	m.metrics.recordRequest(typ.Name)
	return newHandle(r), nil
}

// Get returns a new handle to an existing resource, or nil. It never creates
// and never requests a load. typ may be nil to infer it from the extension.
func (m *Manager) Get(name string, typ *typeregistry.TypeInfo) *Handle {
	key := NewKey(name)
	if key.IsZero() {
		return nil
	}
	if typ == nil {
		ti, ok := m.extensions[extension(key.path)]
		if !ok {
			return nil
		}
		typ = ti
	}
	b, ok := m.buckets[typ]
	if !ok {
		return nil
	}
	r := b.get(key)
	if r == nil {
		return nil
	}
	return newHandle(r)
}

// RegisterCallback calls cb once every handle's resource is terminal. If that
// is already the case cb runs before RegisterCallback returns and the zero ID
// is returned. Otherwise cb runs from a later CheckCallbacks.
func (m *Manager) RegisterCallback(handles []*Handle, cb Callback) CallbackID {
	if allTerminal(handles) {
		cb(handles)
		m.metrics.recordCallbacks(1)
		return CallbackID{}
	}
	return m.callbacks.add(handles, cb)
}

// RemoveCallback unregisters id. It reports whether a callback was removed;
// removing one that already fired is a no-op.
func (m *Manager) RemoveCallback(id CallbackID) bool {
	if id.IsZero() {
		return false
	}
	return m.callbacks.remove(id)
}

// CheckCallbacks fires every callback whose resources are all terminal.
func (m *Manager) CheckCallbacks() {
	for _, e := range m.callbacks.takeReady() {
		m.metrics.recordCallbacks(e.fire())
	}
}

// Tick runs both per-tick pumps. Callbacks go first so they observe terminal
// states before an unload resets them.
func (m *Manager) Tick() {
	m.CheckCallbacks()
	m.CheckAndRemoveResources()
}

// Run calls Tick every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Info is a point-in-time description of one resource.
type Info struct {
	Type         string
	Path         string
	State        State
	RefCount     int32
	LoadRequests int32
	InMemory     bool
	Err          string
}

// Snapshot lists every resource held by the manager, ordered by type and path.
func (m *Manager) Snapshot() []Info {
	var out []Info
	for _, ti := range m.types {
		for _, r := range m.buckets[ti].snapshot() {
			info := Info{
				Type:         ti.Name,
				Path:         r.key.path,
				State:        r.State(),
				RefCount:     r.RefCount(),
				LoadRequests: r.LoadRequests(),
				InMemory:     r.inMemory,
			}
			if err := r.Err(); err != nil {
				info.Err = err.Error()
			}
			out = append(out, info)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Len returns the number of resources held across all buckets.
func (m *Manager) Len() int {
	n := 0
	for _, b := range m.buckets {
		n += b.len()
	}
	return n
}

func (m *Manager) recordLoad(r *Resource, ok bool) {
	elapsed := time.Since(r.loadStarted)
	m.metrics.recordLoad(r.typ.Name, ok, elapsed.Seconds())
	if ok {
		m.logger.Debug("Resource loaded.", "type", r.typ.Name, "path", r.key.path, "duration", elapsed)
		return
	}
	m.logger.Warn("Resource failed to load.", "type", r.typ.Name, "path", r.key.path, "error", r.Err())
}
