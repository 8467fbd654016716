package resource

import (
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key identifies a resource within its type: a 64-bit hash of the normalized
// path plus the path itself. Keys are immutable and comparable.
type Key struct {
	hash uint64
	path string
}

// NewKey normalizes p and hashes it.
func NewKey(p string) Key {
	n := NormalizePath(p)
	return Key{hash: xxhash.Sum64String(n), path: n}
}

// Hash returns the path hash.
func (k Key) Hash() uint64 { return k.hash }

// Path returns the normalized path.
func (k Key) Path() string { return k.path }

// String implements fmt.Stringer.
func (k Key) String() string { return k.path }

// IsZero reports whether k is the zero key (empty path).
func (k Key) IsZero() bool { return k.path == "" }

// less orders keys by hash, then by path so hash collisions stay distinct.
func (k Key) less(o Key) bool {
	if k.hash != o.hash {
		return k.hash < o.hash
	}
	return k.path < o.path
}

// NormalizePath converts p into the canonical form used for keys: forward
// slashes, cleaned, no leading "./" or "/". Case is preserved. An empty or
// root-only path normalizes to "".
func NormalizePath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	p = strings.TrimLeft(path.Clean(p), "/")
	if p == "." {
		return ""
	}
	return p
}

// extension returns the lower-cased extension of a normalized path without
// the dot.
func extension(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}
