package fsutil

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// ErrNotRegularFile is returned by OpenFile for directories and other
// non-regular entries.
var ErrNotRegularFile = errors.New("not a regular file")

// FS is the file-object abstraction the loader reads resource payloads
// through. It is a thin layer over afero so hosts can mount the OS, a
// base-path sandbox, or an in-memory tree.
type FS struct {
	fs afero.Fs
}

// New wraps an afero filesystem.
func New(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

// NewOS returns a filesystem rooted at dir on the host OS. Paths handed to
// OpenFile are resolved relative to dir and cannot escape it.
func NewOS(dir string) *FS {
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *FS {
	return New(afero.NewMemMapFs())
}

// Afero exposes the underlying filesystem.
func (f *FS) Afero() afero.Fs {
	return f.fs
}

// OpenFile opens path for reading. It fails for missing, unreadable, or
// non-regular files.
func (f *FS) OpenFile(path string) (afero.File, error) {
	file, err := f.fs.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}
	return file, nil
}

// CloseFile closes a file previously returned by OpenFile. Closing nil is a no-op.
func (f *FS) CloseFile(file afero.File) error {
	if file == nil {
		return nil
	}
	return file.Close()
}

// WriteFile creates or replaces path with data, creating parent directories.
func (f *FS) WriteFile(path string, data []byte) error {
	if err := f.fs.MkdirAll(dirOf(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(f.fs, path, data, os.FileMode(0o644))
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
