package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func TestExecute_Load(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"app.cfg":   `workers = 2`,
		"intro.txt": "hello\n",
	})

	out := &bytes.Buffer{}
	err := Execute(context.Background(), out, []string{"load", "--root", root, "--log-level", "error"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "app.cfg")
	assert.Contains(t, out.String(), "intro.txt")
	assert.Contains(t, out.String(), "loaded")
}

func TestExecute_LoadResident(t *testing.T) {
	root := writeFiles(t, map[string]string{"intro.txt": "hello\n"})

	out := &bytes.Buffer{}
	err := Execute(context.Background(), out, []string{"load", "--root", root, "--log-level", "error", "--resident"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "intro.txt")
	assert.Contains(t, out.String(), "LOAD REQUESTS")
}

func TestExecute_LoadFailure(t *testing.T) {
	root := writeFiles(t, map[string]string{"broken.cfg": `x = `})

	out := &bytes.Buffer{}
	err := Execute(context.Background(), out, []string{"load", "-r", root, "--log-level", "error", "broken.cfg"})
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, out.String(), "failed")
}

func TestExecute_ConfigSources(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.cfg": `x = 1`})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("ASSETGRID_LOG_FORMAT", "xml")
		err := Execute(context.Background(), &bytes.Buffer{}, []string{"load", "--root", root})
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
		assert.Contains(t, exitErr.Message, "invalid log format")
	})

	t.Run("config file", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "assetgrid.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("root: "+root+"\nlog-level: error\n"), 0o600))

		out := &bytes.Buffer{}
		err := Execute(context.Background(), out, []string{"load", "--config", cfgPath, "a.cfg"})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "a.cfg")
	})

	t.Run("missing config file", func(t *testing.T) {
		err := Execute(context.Background(), &bytes.Buffer{}, []string{"load", "--config", "/does/not/exist.yaml"})
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})
}

func TestExecute_UsageErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown flag", args: []string{"load", "--this-is-not-a-valid-flag"}, want: "unknown flag"},
		{name: "unknown command", args: []string{"explode"}, want: "unknown command"},
		{name: "bad workers", args: []string{"load", "--workers", "0"}, want: "workers must be positive"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Execute(context.Background(), &bytes.Buffer{}, tc.args)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}

func TestExecute_Help(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, Execute(context.Background(), out, []string{"--help"}))
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "load")
	assert.Contains(t, out.String(), "serve")
}
