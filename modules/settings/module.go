package settings

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/assetgrid/internal/resource"
	"github.com/specialistvlad/assetgrid/internal/typeregistry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// TypeName is the registered name of the settings type.
const TypeName = "settings"

// Schema is the optional header of a settings file. When present it must
// match.
const Schema = "settings/v1"

// Settings is a flat set of attributes evaluated with the standard functions
// plus env() and resource().
//
//	workers = 4
//	region  = env("REGION", "eu-west-1")
//	banner  = upper("hello")
type Settings struct {
	values map[string]cty.Value
}

// Reset implements typeregistry.Content.
func (s *Settings) Reset() {
	s.values = nil
}

// Load implements resource.Loader.
func (s *Settings) Load(lc *resource.LoadContext) error {
	values, err := lc.Attributes()
	if err != nil {
		return err
	}
	if header, ok := values["schema"]; ok {
		var got string
		if err := gocty.FromCtyValue(header, &got); err != nil {
			return fmt.Errorf("invalid schema header in %s: %w", lc.Path(), err)
		}
		if got != Schema {
			return fmt.Errorf("schema mismatch in %s: expected %q, got %q", lc.Path(), Schema, got)
		}
		delete(values, "schema")
	}
	s.values = values
	return nil
}

// Names returns the attribute names, sorted.
func (s *Settings) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value returns the raw value of name.
func (s *Settings) Value(name string) (cty.Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Get converts the value of name into target, which must be a pointer.
func (s *Settings) Get(name string, target any) error {
	v, ok := s.values[name]
	if !ok {
		return fmt.Errorf("setting %q not found", name)
	}
	if v.IsNull() {
		return fmt.Errorf("setting %q is null", name)
	}
	if err := gocty.FromCtyValue(v, target); err != nil {
		return fmt.Errorf("setting %q: %w", name, err)
	}
	return nil
}

// StringValue returns the value of name as a string.
func (s *Settings) StringValue(name string) (string, bool) {
	var out string
	if err := s.Get(name, &out); err != nil {
		return "", false
	}
	return out, true
}

// IntValue returns the value of name as an int.
func (s *Settings) IntValue(name string) (int, bool) {
	var out int
	if err := s.Get(name, &out); err != nil {
		return 0, false
	}
	return out, true
}

// Module implements the typeregistry.Module interface for this package.
type Module struct{}

// Register registers the settings type.
func (m *Module) Register(r *typeregistry.Registry) {
	r.Register(&typeregistry.TypeInfo{
		Name:       TypeName,
		New:        func() typeregistry.Content { return new(Settings) },
		Extensions: []string{"cfg"},
	})
}
