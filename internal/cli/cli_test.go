package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// useConfig points --config at a temporary file with the given contents for
// the duration of the test.
func useConfig(t *testing.T, contents string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hostwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	original := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = original })
}

// lockedBuffer is a bytes.Buffer safe for a writer goroutine and a reader.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
