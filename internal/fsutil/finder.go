// Package fsutil provides the filesystem collaborator used by the resource
// manager, plus discovery helpers for hosts that want to preload a directory.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FindFilesByExtension recursively searches root for all files whose extension
// (without the leading dot, case-insensitive) is one of exts. It returns their
// slash-separated paths relative to root, sorted.
func FindFilesByExtension(fsys afero.Fs, root string, exts ...string) ([]string, error) {
	if len(exts) == 0 {
		panic("at least one extension is required")
	}

	wanted := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		wanted[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	var files []string
	err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(info.Name()), "."))
		if _, ok := wanted[ext]; !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
