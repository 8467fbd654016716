package resource

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/assetgrid/internal/typeregistry"
)

// Resource is one loadable unit. Callers never hold a *Resource directly for
// ownership; they hold a *Handle. The exported methods are read-only views.
type Resource struct {
	key      Key
	typ      *typeregistry.TypeInfo
	content  typeregistry.Content
	manager  *Manager
	inMemory bool

	state        atomic.Int32
	refCount     atomic.Int32
	loadRequests atomic.Int32
	// pins counts pending callback entries that wait on this resource.
	pins atomic.Int32

	// transition serializes requestLoad's Deferred → Pending step with reset.
	transition  sync.Mutex
	loadStarted time.Time

	tracker dependencyTracker

	depsMu sync.Mutex
	deps   []*Handle

	errMu sync.Mutex
	err   error

	notifyMu sync.Mutex
	changed  chan struct{}

	removalQueued atomic.Bool
	unloadQueued  atomic.Bool
	freed         atomic.Bool
}

func newResource(m *Manager, key Key, typ *typeregistry.TypeInfo, inMemory bool) *Resource {
	r := &Resource{
		key:      key,
		typ:      typ,
		content:  typ.New(),
		manager:  m,
		inMemory: inMemory,
		changed:  make(chan struct{}),
	}
	r.tracker.owner = r
	if inMemory {
		// Nothing to load: dependents see a finished, successful latch.
		r.state.Store(int32(Loaded))
		r.tracker.finished = true
		r.tracker.succeeded = true
	}
	return r
}

// Key returns the resource key.
func (r *Resource) Key() Key { return r.key }

// Path returns the normalized path.
func (r *Resource) Path() string { return r.key.path }

// Type returns the type descriptor.
func (r *Resource) Type() *typeregistry.TypeInfo { return r.typ }

// State returns the current lifecycle state.
func (r *Resource) State() State { return State(r.state.Load()) }

// RefCount returns the number of live handles.
func (r *Resource) RefCount() int32 { return r.refCount.Load() }

// LoadRequests returns the number of outstanding load requests.
func (r *Resource) LoadRequests() int32 { return r.loadRequests.Load() }

// InMemory reports whether the resource was created without a backing file.
func (r *Resource) InMemory() bool { return r.inMemory }

// Err returns the error recorded by the last failed load, if any.
func (r *Resource) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.err
}

func (r *Resource) setErr(err error) {
	r.errMu.Lock()
	r.err = err
	r.errMu.Unlock()
}

// Content returns the payload. It is only meaningful once the resource is
// Loaded, and stays valid until the resource is reset or freed.
func (r *Resource) Content() typeregistry.Content { return r.content }

// dependencies returns a copy of the dependency handles held while loaded.
func (r *Resource) dependencies() []*Handle {
	r.depsMu.Lock()
	defer r.depsMu.Unlock()
	if len(r.deps) == 0 {
		return nil
	}
	out := make([]*Handle, len(r.deps))
	copy(out, r.deps)
	return out
}

func (r *Resource) setDependencies(deps []*Handle) {
	r.depsMu.Lock()
	r.deps = deps
	r.depsMu.Unlock()
}

func (r *Resource) takeDependencies() []*Handle {
	r.depsMu.Lock()
	defer r.depsMu.Unlock()
	deps := r.deps
	r.deps = nil
	return deps
}

// stateChanged returns a channel closed on the next state change.
func (r *Resource) stateChanged() <-chan struct{} {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	return r.changed
}

func (r *Resource) setState(s State) {
	r.state.Store(int32(s))
	r.notify()
}

func (r *Resource) notify() {
	r.notifyMu.Lock()
	close(r.changed)
	r.changed = make(chan struct{})
	r.notifyMu.Unlock()
}

func (r *Resource) addRef() {
	r.refCount.Add(1)
}

func (r *Resource) release() {
	n := r.refCount.Add(-1)
	switch {
	case n == 0:
		r.manager.scheduleRemoval(r)
	case n < 0:
		panic(fmt.Sprintf("resource %s/%s released more times than referenced", r.typ.Name, r.key.path))
	}
}

// requestLoad records one load request and, from Deferred, starts a load.
func (r *Resource) requestLoad() {
	r.transition.Lock()
	r.loadRequests.Add(1)
	start := r.State() == Deferred
	if start {
		r.tracker.begin()
		r.loadStarted = time.Now()
		r.setState(Pending)
	}
	r.transition.Unlock()

	if start {
		r.manager.submitLoad(r)
	}
}

// requestUnload drops one load request. The last one schedules a reset.
// Unbalanced calls are ignored.
func (r *Resource) requestUnload() {
	for {
		cur := r.loadRequests.Load()
		if cur <= 0 {
			return
		}
		if r.loadRequests.CompareAndSwap(cur, cur-1) {
			if cur == 1 {
				r.manager.scheduleUnload(r)
			}
			return
		}
	}
}

type resetOutcome int

const (
	resetDone resetOutcome = iota
	resetDropped
	resetKept
)

// reset returns a terminal resource to Deferred. It refuses while a load is
// in flight or while someone still wants the resource loaded.
func (r *Resource) reset() resetOutcome {
	r.transition.Lock()
	if r.loadRequests.Load() > 0 || r.inMemory {
		r.transition.Unlock()
		return resetDropped
	}
	switch r.State() {
	case Pending:
		r.transition.Unlock()
		return resetKept
	case Deferred:
		r.transition.Unlock()
		return resetDropped
	}
	if r.pins.Load() > 0 {
		// A pending callback has yet to observe the terminal state.
		r.transition.Unlock()
		return resetKept
	}

	deps := r.takeDependencies()
	r.content.Reset()
	r.tracker.reset()
	r.setErr(nil)
	r.setState(Deferred)
	r.transition.Unlock()

	for _, d := range deps {
		d.Release()
	}
	return resetDone
}

// free runs once, after the bucket erased the resource.
func (r *Resource) free() {
	if !r.freed.CompareAndSwap(false, true) {
		return
	}
	deps := r.takeDependencies()
	r.content.Reset()
	for _, d := range deps {
		d.Release()
	}
}

// failed records err and finishes the load unsuccessfully.
func (r *Resource) failed(err error) {
	if r.State() != Pending {
		return
	}
	r.setErr(err)
	r.finish(false)
}

// finish moves Pending to a terminal state exactly once and notifies
// dependents.
func (r *Resource) finish(ok bool) {
	target := Failed
	if ok {
		target = Loaded
	}
	if !r.state.CompareAndSwap(int32(Pending), int32(target)) {
		return
	}
	r.notify()
	r.manager.recordLoad(r, ok)
	r.tracker.finishedLoading(ok)
}
