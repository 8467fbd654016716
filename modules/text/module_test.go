package text

import (
	"testing"

	"github.com/specialistvlad/assetgrid/internal/resource"
	"github.com/specialistvlad/assetgrid/internal/resource/resourcetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Load(t *testing.T) {
	testCases := []struct {
		name  string
		path  string
		body  string
		lines int
	}{
		{name: "trailing newline", path: "a.txt", body: "one\ntwo\n", lines: 2},
		{name: "no trailing newline", path: "b.txt", body: "one\ntwo", lines: 2},
		{name: "empty", path: "c.txt", body: "", lines: 0},
		{name: "markdown", path: "README.MD", body: "# title\n", lines: 1},
	}

	files := make(map[string]string)
	for _, tc := range testCases {
		files[tc.path] = tc.body
	}
	env := resourcetest.New(t, files, &Module{})

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := env.MustLoad(t, tc.path)
			defer h.Release()

			txt, ok := resource.ContentAs[*Text](h)
			require.True(t, ok)
			assert.Equal(t, tc.body, txt.String())
			assert.Equal(t, tc.lines, txt.Lines)
		})
	}
}

func TestText_InvalidUTF8(t *testing.T) {
	env := resourcetest.New(t, map[string]string{"bin.txt": "\xff\xfe"}, &Module{})

	h := env.Load(t, "bin.txt")
	defer h.Release()
	assert.True(t, h.HasFailed())
	assert.ErrorIs(t, h.Err(), resource.ErrParse)
	assert.ErrorIs(t, h.Err(), errInvalidUTF8)
}

func TestText_UsesIOQueue(t *testing.T) {
	env := resourcetest.New(t, map[string]string{"a.txt": "x"}, &Module{})
	typ, ok := env.Registry.Lookup(TypeName)
	require.True(t, ok)
	assert.Equal(t, PoolTag, typ.PoolTag)

	h := env.MustLoad(t, "a.txt")
	h.Release()
	assert.NotContains(t, env.Logs.String(), "Unknown pool tag")
}
