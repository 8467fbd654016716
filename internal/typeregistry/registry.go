package typeregistry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Content is the payload of a resource. The manager constructs one through
// TypeInfo.New, decodes into it while loading, and calls Reset when the
// resource is unloaded or freed.
type Content interface {
	// Reset returns the payload to its pristine, unloaded configuration.
	Reset()
}

// TypeInfo describes one loadable type.
type TypeInfo struct {
	// Name uniquely identifies the type, e.g. "bundle".
	Name string
	// New default-constructs an empty payload.
	New func() Content
	// Creatable types may be constructed in memory without a backing file.
	Creatable bool
	// Extensions lists the file extensions (without the dot) handled by this type.
	Extensions []string
	// PoolTag selects a dedicated job queue for this type's load jobs.
	PoolTag string
	// Schema, when set, must match the payload's `schema` header attribute.
	Schema string
}

// String implements fmt.Stringer.
func (t *TypeInfo) String() string {
	if t == nil {
		return "<nil type>"
	}
	return t.Name
}

// Module is implemented by payload packages that contribute resource types.
type Module interface {
	Register(r *Registry)
}

// Registry holds every registered TypeInfo.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*TypeInfo
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string]*TypeInfo)}
}

// Register adds a type. It panics on an empty name, a missing factory, or a
// name that is already registered.
func (r *Registry) Register(t *TypeInfo) {
	if t == nil || t.Name == "" {
		panic("type registration requires a name")
	}
	if t.New == nil {
		panic(fmt.Sprintf("type '%s' has no factory", t.Name))
	}

	normalized := make([]string, 0, len(t.Extensions))
	for _, ext := range t.Extensions {
		normalized = append(normalized, NormalizeExtension(ext))
	}
	t.Extensions = normalized

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[t.Name]; exists {
		panic(fmt.Sprintf("resource type with name '%s' already registered", t.Name))
	}
	slog.Debug("Registering resource type.", "name", t.Name, "extensions", t.Extensions)
	r.types[t.Name] = t
}

// RegisterModules lets each module register its types.
func (r *Registry) RegisterModules(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// All returns every registered type sorted by name.
func (r *Registry) All() []*TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TypeInfo, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NormalizeExtension lower-cases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
