package command

import (
	"bytes"
	"path/filepath"
	"testing"

	"qr-extrude/internal/config"
	"qr-extrude/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := New()
	a.Writer = &out
	a.ErrWriter = &out
	err := a.Run(append([]string{"qr-extrude"}, args...))
	return out.String(), err
}

func TestCategoriesListDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	out, err := run(t, "--settings", path, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "Red")
	assert.Contains(t, out, "rgb(0, 90, 255)")
	assert.Contains(t, out, "#1eff00")
}

func TestInitThenSetCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	_, err := run(t, "--settings", path, "init")
	require.NoError(t, err)
	_, err = run(t, "--settings", path, "init")
	assert.Error(t, err, "init must not overwrite without --force")

	_, err = run(t, "--settings", path, "categories", "set", "--color", "#00ff00", "--height", "9.5", "Green")
	require.NoError(t, err)

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, colorutil.RGB{G: 255}, s.Categories[2].Color)
	assert.Equal(t, 9.5, s.Categories[2].Height)
	assert.Equal(t, 50, s.Categories[2].Tolerance)

	_, err = run(t, "--settings", path, "categories", "set", "--height", "-1", "Green")
	assert.Error(t, err)
	_, err = run(t, "--settings", path, "categories", "set", "--height", "1", "Purple")
	assert.Error(t, err)
}

func TestProcessRequiresImages(t *testing.T) {
	_, err := run(t, "--settings", filepath.Join(t.TempDir(), "s.yaml"), "process")
	assert.Error(t, err)
}
