package testutils

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// WriteFiles creates dir on fsys and writes each name with content "<name> bytes"
func WriteFiles(t *testing.T, fsys afero.Fs, dir string, names ...string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(dir, 0755))
	for _, name := range names {
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(dir, name), []byte(name+" bytes"), 0644))
	}
}

// ReadFile returns the content of path as a string
func ReadFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(data)
}

// Exists reports whether path exists on fsys
func Exists(t *testing.T, fsys afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fsys, path)
	require.NoError(t, err)
	return ok
}
