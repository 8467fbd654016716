package text

import (
	"bytes"
	"unicode/utf8"

	"github.com/specialistvlad/assetgrid/internal/resource"
	"github.com/specialistvlad/assetgrid/internal/typeregistry"
)

// TypeName is the registered name of the text type.
const TypeName = "text"

// PoolTag routes text loads to the dedicated I/O queue.
const PoolTag = "io"

// Text keeps a file's bytes as they are.
type Text struct {
	Body  []byte
	Lines int
}

// Reset implements typeregistry.Content.
func (t *Text) Reset() {
	t.Body = nil
	t.Lines = 0
}

// Load implements resource.Loader.
func (t *Text) Load(lc *resource.LoadContext) error {
	data := lc.Data()
	if !utf8.Valid(data) {
		return errInvalidUTF8
	}
	t.Body = bytes.Clone(data)
	t.Lines = bytes.Count(data, []byte{'\n'})
	if len(data) > 0 && data[len(data)-1] != '\n' {
		t.Lines++
	}
	return nil
}

// String returns the body.
func (t *Text) String() string { return string(t.Body) }

// Module implements the typeregistry.Module interface for this package.
type Module struct{}

// Register registers the text type.
func (m *Module) Register(r *typeregistry.Registry) {
	r.Register(&typeregistry.TypeInfo{
		Name:       TypeName,
		New:        func() typeregistry.Content { return new(Text) },
		Extensions: []string{"txt", "md"},
		PoolTag:    PoolTag,
	})
}
