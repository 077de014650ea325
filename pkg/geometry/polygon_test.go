package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangulatedArea(poly Polygon, tris [][3]int) float64 {
	var total float64
	for _, tr := range tris {
		total += Polygon{poly[tr[0]], poly[tr[1]], poly[tr[2]]}.SignedArea()
	}
	return total
}

func TestPolygonArea(t *testing.T) {
	sq := Polygon{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	assert.Equal(t, 4.0, sq.SignedArea())

	rev := Polygon{{0, 2}, {2, 2}, {2, 0}, {0, 0}}
	assert.Equal(t, -4.0, rev.SignedArea())
	assert.Equal(t, 4.0, rev.Area())

	assert.Zero(t, Polygon{{0, 0}, {1, 1}}.SignedArea())
}

func TestPolygonDedup(t *testing.T) {
	p := Polygon{{0, 0}, {0, 0}, {1, 0}, {1, 1}, {1, 1}, {0, 0}}
	assert.Equal(t, Polygon{{0, 0}, {1, 0}, {1, 1}}, p.Dedup(1e-9))
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name string
		poly Polygon
		tris int
	}{
		{"triangle", Polygon{{0, 0}, {4, 0}, {0, 3}}, 1},
		{"square ccw", Polygon{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, 2},
		{"square cw", Polygon{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, 2},
		{"concave L", Polygon{{0, 0}, {4, 0}, {4, 1}, {1, 1}, {1, 3}, {0, 3}}, 4},
		{"concave cw", Polygon{{0, 3}, {1, 3}, {1, 1}, {4, 1}, {4, 0}, {0, 0}}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := Triangulate(tt.poly)
			require.Len(t, tris, tt.tris)
			assert.InDelta(t, tt.poly.SignedArea(), triangulatedArea(tt.poly, tris), 1e-9)
		})
	}
}

func TestTriangulateDegenerate(t *testing.T) {
	assert.Nil(t, Triangulate([]Point2D{{0, 0}, {1, 1}}))

	// Self-intersecting bow tie must not panic and must reference valid indices.
	bow := []Point2D{{0, 0}, {2, 2}, {2, 0}, {0, 2}}
	for _, tr := range Triangulate(bow) {
		for _, i := range tr {
			assert.True(t, i >= 0 && i < len(bow))
		}
	}

	// Collinear run is skipped without slivers.
	line := []Point2D{{0, 0}, {1, 0}, {2, 0}, {2, 1}}
	tris := Triangulate(line)
	assert.InDelta(t, Polygon(line).SignedArea(), triangulatedArea(line, tris), 1e-9)
}

func TestCollinear(t *testing.T) {
	assert.True(t, Collinear(Point2D{0, 0}, Point2D{1, 1}, Point2D{5, 5}, 1e-9))
	assert.True(t, Collinear(Point2D{1, 1}, Point2D{1, 1}, Point2D{3, 0}, 1e-9))
	assert.False(t, Collinear(Point2D{0, 0}, Point2D{1, 0}, Point2D{0, 1}, 1e-9))
}

func TestCentroid(t *testing.T) {
	pts := []Point2D{{1, 2}, {5, -1}, {3, 4}}
	assert.Equal(t, Point2D{X: 3, Y: 5.0 / 3}, Centroid(pts))
	assert.Equal(t, Point2D{}, Centroid(nil))
}
