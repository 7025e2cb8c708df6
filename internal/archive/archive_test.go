package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetpoll/internal/domain"
)

func TestDirStore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "config_backup")
	d := NewDir(root)

	require.NoError(t, d.Store("R1", "2026-1-2_9-5", "hostname R1\n"))

	path := filepath.Join(root, "R1", "R1_2026-1-2_9-5.ios")
	assert.Equal(t, path, d.Path("R1", "2026-1-2_9-5"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hostname R1\n", string(data))
}

func TestDirStoreOverwritesSameTimestamp(t *testing.T) {
	d := NewDir(t.TempDir())

	require.NoError(t, d.Store("R1", "ts", "first"))
	require.NoError(t, d.Store("R1", "ts", "second"))

	data, err := os.ReadFile(d.Path("R1", "ts"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestDirStoreRejectsBadHostnames(t *testing.T) {
	d := NewDir(t.TempDir())

	for _, name := range []string{"", ".", "..", "../etc", `a\b`} {
		t.Run(name, func(t *testing.T) {
			err := d.Store(name, "ts", "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrWrite)
		})
	}
}

func TestDirStoreUnwritableRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("not a dir"), 0o644))

	err := NewDir(root).Store("R1", "ts", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWrite)
}
