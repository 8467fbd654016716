package resource

import (
	"sync/atomic"

	"github.com/specialistvlad/assetgrid/internal/typeregistry"
)

// Handle is a counted reference to a resource. Each handle owns exactly one
// reference and at most one load request, and must be released once.
type Handle struct {
	res           *Resource
	loadRequested atomic.Bool
	released      atomic.Bool
}

// newHandle wraps a resource whose reference was already taken.
func newHandle(r *Resource) *Handle {
	return &Handle{res: r}
}

// Resource returns the shared resource behind the handle.
func (h *Handle) Resource() *Resource { return h.res }

// Key returns the resource key.
func (h *Handle) Key() Key { return h.res.key }

// Path returns the normalized resource path.
func (h *Handle) Path() string { return h.res.key.path }

// Type returns the resource type.
func (h *Handle) Type() *typeregistry.TypeInfo { return h.res.typ }

// State returns the current lifecycle state.
func (h *Handle) State() State { return h.res.State() }

// IsLoaded reports whether the resource is Loaded.
func (h *Handle) IsLoaded() bool { return h.res.State() == Loaded }

// HasFailed reports whether the resource is Failed.
func (h *Handle) HasFailed() bool { return h.res.State() == Failed }

// IsTerminal reports whether the resource is Loaded or Failed.
func (h *Handle) IsTerminal() bool { return h.res.State().IsTerminal() }

// Err returns the error of the last failed load.
func (h *Handle) Err() error { return h.res.Err() }

// Content returns the payload.
func (h *Handle) Content() typeregistry.Content { return h.res.content }

// Same reports whether both handles refer to the same resource.
func (h *Handle) Same(o *Handle) bool {
	return h != nil && o != nil && h.res == o.res
}

// Dependencies returns the handles of the resources this one required while
// loading. They are owned by the resource and must not be released.
func (h *Handle) Dependencies() []*Handle { return h.res.dependencies() }

// Clone returns a new handle to the same resource. The clone carries no load
// request.
func (h *Handle) Clone() *Handle {
	h.res.addRef()
	return newHandle(h.res)
}

// RequestLoad asks for the resource to be loaded. A handle holds at most one
// load request; repeated calls are no-ops.
func (h *Handle) RequestLoad() {
	if h.loadRequested.CompareAndSwap(false, true) {
		h.res.requestLoad()
	}
}

// RequestUnload drops this handle's load request, if any.
func (h *Handle) RequestUnload() {
	if h.loadRequested.CompareAndSwap(true, false) {
		h.res.requestUnload()
	}
}

// Release drops the load request and the reference. Only the first call has
// an effect.
func (h *Handle) Release() {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return
	}
	h.RequestUnload()
	h.res.release()
}

// ContentAs returns the payload of h as T.
func ContentAs[T typeregistry.Content](h *Handle) (T, bool) {
	c, ok := h.Content().(T)
	return c, ok
}
