package harness

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", "nested/c.yaml", "brew_full.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	paths, err := Discover(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "brew_full.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, paths)

	paths, err = Discover(dir, "b*")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "brew_full.yaml"),
	}, paths)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"), "")

	var dirErr *ScenarioDirError
	require.True(t, errors.As(err, &dirErr))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestDiscover_BadFilter(t *testing.T) {
	_, err := Discover(t.TempDir(), "[")
	assert.Error(t, err)
}
