package solid

import (
	"errors"
	"fmt"
	"math"

	"qr-extrude/internal/config"
	"qr-extrude/pkg/geometry"

	"github.com/golang/geo/r3"
)

// dedupEps merges vertices closer than this before extrusion.
const dedupEps = 1e-9

// ErrInvalidHeight is returned for a non-positive or non-finite height.
var ErrInvalidHeight = errors.New("extrusion height must be positive")

// Build extrudes every polygon along +z by the category height and groups the
// solids into one mesh named after the category. Polygon order is kept.
// Polygons with fewer than three distinct vertices are skipped. Self-crossing
// polygons still produce a mesh, but it is not guaranteed to be closed.
func Build(polygons []geometry.Polygon, cat config.Category) (*Mesh, error) {
	h := cat.Height
	if h <= 0 || math.IsInf(h, 0) || math.IsNaN(h) {
		return nil, fmt.Errorf("build %s: %w (got %v)", cat.Name, ErrInvalidHeight, h)
	}

	mesh := &Mesh{Name: cat.Name}
	for _, poly := range polygons {
		s, ok := Extrude(poly, h)
		if !ok {
			continue
		}
		mesh.Solids = append(mesh.Solids, s)
	}
	return mesh, nil
}

// Extrude builds a prism with its bottom ring at z=0 and its top ring at
// z=height. Vertices 0..n-1 are the bottom ring, n..2n-1 the top ring, in
// counter-clockwise order seen from +z. It reports false when the polygon
// has fewer than three distinct vertices.
func Extrude(poly geometry.Polygon, height float64) (Solid, bool) {
	ring := poly.Dedup(dedupEps)
	if len(ring) < 3 {
		return Solid{}, false
	}
	if ring.SignedArea() < 0 {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}

	n := len(ring)
	s := Solid{Vertices: make([]r3.Vector, 0, 2*n)}
	for _, p := range ring {
		s.Vertices = append(s.Vertices, r3.Vector{X: p.X, Y: p.Y, Z: 0})
	}
	for _, p := range ring {
		s.Vertices = append(s.Vertices, r3.Vector{X: p.X, Y: p.Y, Z: height})
	}

	caps := geometry.Triangulate(ring)
	for _, t := range caps {
		// Top faces +z, bottom faces -z.
		s.Faces = append(s.Faces, [3]int{t[0] + n, t[1] + n, t[2] + n})
		s.Faces = append(s.Faces, [3]int{t[2], t[1], t[0]})
	}

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		s.Faces = append(s.Faces,
			[3]int{i, j, j + n},
			[3]int{i, j + n, i + n},
		)
	}
	return s, true
}
