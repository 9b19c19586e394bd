package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFindFilesByExtension_SingleFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "one.hcl")
	touch(t, path)

	files, err := FindFilesByExtension(path, ".hcl")
	require.NoError(t, err)
	require.Equal(t, []string{path}, files)
}

func TestFindFilesByExtension_DirectoryRecursesAndSorts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.hcl"))
	touch(t, filepath.Join(dir, "a.hcl"))
	touch(t, filepath.Join(dir, "nested", "c.hcl"))
	touch(t, filepath.Join(dir, "ignored.txt"))

	files, err := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "nested", "c.hcl"),
	}, files)
}

func TestFindFilesByExtension_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "nope"), ".hcl")
	require.Error(t, err)
}
