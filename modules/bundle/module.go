package bundle

import (
	"github.com/specialistvlad/assetgrid/internal/resource"
	"github.com/specialistvlad/assetgrid/internal/typeregistry"
)

// TypeName is the registered name of the bundle type.
const TypeName = "bundle"

// Schema is the header every bundle file must carry.
const Schema = "bundle/v1"

// Bundle groups other resources. Every `resource("...")` listed in Include is
// a load dependency, so a bundle is Loaded only once all of its members are.
//
//	schema      = "bundle/v1"
//	description = "level one"
//	include     = [resource("maps/one.cfg"), resource("intro.txt")]
type Bundle struct {
	Description string            `hcl:"description,optional"`
	Include     []string          `hcl:"include,optional"`
	Labels      map[string]string `hcl:"labels,optional"`
}

// Reset implements typeregistry.Content.
func (b *Bundle) Reset() {
	*b = Bundle{}
}

// Members returns the loaded member handles of h, in declaration order
// (duplicates collapsed). The handles are owned by the bundle.
func Members(h *resource.Handle) []*resource.Handle {
	return h.Dependencies()
}

// Module implements the typeregistry.Module interface for this package.
type Module struct{}

// Register registers the bundle type.
func (m *Module) Register(r *typeregistry.Registry) {
	r.Register(&typeregistry.TypeInfo{
		Name:       TypeName,
		New:        func() typeregistry.Content { return new(Bundle) },
		Creatable:  true,
		Extensions: []string{"bundle"},
		Schema:     Schema,
	})
}
