package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Context returns a context carrying a debug-level text logger that writes
// into the returned buffer. The context is cancelled when the test ends.
func Context(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))
	t.Cleanup(cancel)
	return ctx, buf
}

// NewFS returns an in-memory filesystem holding files (path → contents).
func NewFS(t *testing.T, files map[string]string) *fsutil.FS {
	t.Helper()
	fs := fsutil.NewMemory()
	for path, content := range files {
		require.NoError(t, fs.WriteFile(path, []byte(content)), "failed to write fixture %s", path)
	}
	return fs
}
