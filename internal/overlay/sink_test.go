package overlay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"qr-extrude/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	assert.Equal(t, "atelier-34-Red", ID("atelier-34", "Red"))
}

func TestDirSinkReplacesPreviousOverlay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewDirSink(dir)
	require.NoError(t, err)

	ctx := context.Background()
	red := colorutil.RGB{R: 255}
	require.NoError(t, sink.Overlay(ctx, "atelier-34-Red", []byte("o Red_0\n"), red))
	require.NoError(t, sink.Overlay(ctx, "atelier-34-Red", []byte("o Red_1\n"), red))

	obj, err := os.ReadFile(filepath.Join(dir, "atelier-34-Red.obj"))
	require.NoError(t, err)
	assert.Equal(t, "mtllib atelier-34-Red.mtl\nusemtl atelier-34-Red\no Red_1\n", string(obj))

	mtl, err := os.ReadFile(filepath.Join(dir, "atelier-34-Red.mtl"))
	require.NoError(t, err)
	assert.Contains(t, string(mtl), "newmtl atelier-34-Red\n")
	assert.Contains(t, string(mtl), "Kd 1.0000 0.0000 0.0000\n")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")
}

func TestDirSinkRejectsBadID(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, sink.Overlay(context.Background(), "../escape", nil, colorutil.RGB{}))
	assert.Error(t, sink.Overlay(context.Background(), "", nil, colorutil.RGB{}))
}

func TestDirSinkHonorsCancel(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sink.Overlay(ctx, "x", nil, colorutil.RGB{}), context.Canceled)
}
