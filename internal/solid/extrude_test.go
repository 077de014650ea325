package solid

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"qr-extrude/internal/alignment"
	"qr-extrude/internal/config"
	"qr-extrude/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func category(h float64) config.Category {
	return config.Category{Name: "Test", Tolerance: 50, Height: h}
}

// assertClosed checks that every directed edge is matched by its reverse,
// which holds for a closed, consistently oriented surface.
func assertClosed(t *testing.T, s Solid) {
	t.Helper()
	edges := map[[2]int]int{}
	for _, f := range s.Faces {
		for k := 0; k < 3; k++ {
			edges[[2]int{f[k], f[(k+1)%3]}]++
		}
	}
	for e, n := range edges {
		assert.Equal(t, 1, n, "edge %v used %d times", e, n)
		assert.Equal(t, 1, edges[[2]int{e[1], e[0]}], "edge %v has no twin", e)
	}
}

func TestExtrudeUnitSquare(t *testing.T) {
	for _, h := range []float64{1, 2.5, 15} {
		mesh, err := Build([]geometry.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}, category(h))
		require.NoError(t, err)
		require.Len(t, mesh.Solids, 1)

		assert.InDelta(t, h, mesh.Volume(), 1e-9)
		assert.Equal(t, 8, mesh.VertexCount())
		assertClosed(t, mesh.Solids[0])
	}
}

func TestExtrudeNormalizesWinding(t *testing.T) {
	cw := geometry.Polygon{{0, 0}, {0, -2}, {3, -2}, {3, 0}}
	s, ok := Extrude(cw, 4)
	require.True(t, ok)
	assert.InDelta(t, 24, s.Volume(), 1e-9)
	assertClosed(t, s)
}

func TestExtrudeConcave(t *testing.T) {
	l := geometry.Polygon{{0, 0}, {4, 0}, {4, 1}, {1, 1}, {1, 3}, {0, 3}}
	s, ok := Extrude(l, 2)
	require.True(t, ok)
	assert.Len(t, s.Vertices, 12)
	assert.InDelta(t, 12, s.Volume(), 1e-9)
	assertClosed(t, s)
}

func TestBuildKeepsOrderAndSkipsDegenerate(t *testing.T) {
	polys := []geometry.Polygon{
		{{0, 0}, {1, 0}, {0, 1}},
		{{5, 5}, {5, 5}, {6, 6}},
		{{0, 0}, {2, 0}, {2, 2}, {0, 2}},
	}
	mesh, err := Build(polys, category(1))
	require.NoError(t, err)
	require.Len(t, mesh.Solids, 2)
	assert.InDelta(t, 0.5, mesh.Solids[0].Volume(), 1e-9)
	assert.InDelta(t, 4, mesh.Solids[1].Volume(), 1e-9)
	assert.Equal(t, 6+8, mesh.VertexCount())
}

func TestBuildSelfIntersectingDoesNotPanic(t *testing.T) {
	bow := geometry.Polygon{{0, 0}, {2, 2}, {2, 0}, {0, 2}}
	assert.NotPanics(t, func() {
		mesh, err := Build([]geometry.Polygon{bow}, category(3))
		require.NoError(t, err)
		require.Len(t, mesh.Solids, 1)
		assert.Equal(t, 8, mesh.VertexCount())
		_, err = mesh.MarshalOBJ()
		assert.NoError(t, err)
	})
}

func TestBuildRejectsHeight(t *testing.T) {
	_, err := Build(nil, category(0))
	assert.True(t, errors.Is(err, ErrInvalidHeight), "got %v", err)
	_, err = Build(nil, category(-3))
	assert.True(t, errors.Is(err, ErrInvalidHeight), "got %v", err)
}

func TestBuildEmpty(t *testing.T) {
	mesh, err := Build(nil, category(1))
	require.NoError(t, err)
	assert.Empty(t, mesh.Solids)
	assert.Zero(t, mesh.Volume())
}

func TestWriteOBJ(t *testing.T) {
	mesh, err := Build([]geometry.Polygon{
		{{0, 0}, {1, 0}, {0, 1}},
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	}, config.Category{Name: "Red", Tolerance: 50, Height: 15})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, mesh.WriteOBJ(&buf))

	counts := map[string]int{}
	var maxIndex int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		fields := strings.Fields(line)
		counts[fields[0]]++
		if fields[0] == "f" {
			require.Len(t, fields, 4)
			for _, f := range fields[1:] {
				idx, err := strconv.Atoi(f)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, idx, 1)
				maxIndex = max(maxIndex, idx)
			}
		}
	}

	assert.Equal(t, 2, counts["o"])
	assert.Equal(t, 6+8, counts["v"])
	assert.Equal(t, mesh.FaceCount(), counts["f"])
	assert.Equal(t, 14, maxIndex)
	assert.Contains(t, buf.String(), "o Red_0\n")
	assert.Contains(t, buf.String(), "o Red_1\n")
	assert.Contains(t, buf.String(), "v 1 1 15\n")
}

func TestEndToEndScenario(t *testing.T) {
	corners := geometry.Quad{{100, 100}, {200, 100}, {200, 200}, {100, 200}}
	h, err := alignment.ImageToMarker(corners, 77.78)
	require.NoError(t, err)

	rectified, err := alignment.RectifyBoundaries([]geometry.Polygon{
		{{120, 120}, {180, 120}, {180, 180}, {120, 180}},
	}, h)
	require.NoError(t, err)
	require.Len(t, rectified, 1)

	side := 60 * 77.78 / 100
	assert.InDelta(t, side, rectified[0][0].Distance(rectified[0][1]), 1e-6)

	red := config.DefaultCategories()[0]
	mesh, err := Build(rectified, red)
	require.NoError(t, err)
	assert.InDelta(t, side*side*15, mesh.Volume(), 1e-6)
	assert.Equal(t, 8, mesh.VertexCount())
}
