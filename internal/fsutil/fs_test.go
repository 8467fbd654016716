package fsutil

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFile(t *testing.T) {
	fsys := NewMemory()
	require.NoError(t, fsys.WriteFile("textures/stone.cfg", []byte("a = 1")))

	t.Run("reads an existing file", func(t *testing.T) {
		f, err := fsys.OpenFile("textures/stone.cfg")
		require.NoError(t, err)
		defer fsys.CloseFile(f)

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "a = 1", string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := fsys.OpenFile("nope.cfg")
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("directory is rejected", func(t *testing.T) {
		_, err := fsys.OpenFile("textures")
		assert.ErrorIs(t, err, ErrNotRegularFile)
	})

	t.Run("closing nil is a no-op", func(t *testing.T) {
		assert.NoError(t, fsys.CloseFile(nil))
	})
}

func TestFindFilesByExtension(t *testing.T) {
	fsys := NewMemory()
	for _, p := range []string{"root/a.cfg", "root/sub/b.CFG", "root/sub/c.txt", "root/d.bundle", "root/e.md"} {
		require.NoError(t, fsys.WriteFile(p, []byte("x")))
	}

	files, err := FindFilesByExtension(fsys.Afero(), "root", "cfg", ".bundle")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.cfg", "d.bundle", "sub/b.CFG"}, files)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(fsys.Afero(), "root") })
}
