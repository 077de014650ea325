// Package solid extrudes rectified boundaries into closed meshes and writes
// them as Wavefront OBJ text.
package solid

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/golang/geo/r3"
)

// Solid is one closed, outward-facing triangle mesh.
type Solid struct {
	Vertices []r3.Vector
	Faces    [][3]int // Zero-based indices into Vertices
}

// Volume returns the enclosed volume using the divergence theorem. The result
// is positive for outward-facing triangles.
func (s Solid) Volume() float64 {
	var v float64
	for _, f := range s.Faces {
		a, b, c := s.Vertices[f[0]], s.Vertices[f[1]], s.Vertices[f[2]]
		v += a.Dot(b.Cross(c))
	}
	return v / 6
}

// Mesh groups the solids extruded for one category.
type Mesh struct {
	Name   string
	Solids []Solid
}

// Volume sums the volume of every solid.
func (m *Mesh) Volume() float64 {
	var v float64
	for _, s := range m.Solids {
		v += s.Volume()
	}
	return v
}

// VertexCount returns the total vertex count across solids.
func (m *Mesh) VertexCount() int {
	n := 0
	for _, s := range m.Solids {
		n += len(s.Vertices)
	}
	return n
}

// FaceCount returns the total triangle count across solids.
func (m *Mesh) FaceCount() int {
	n := 0
	for _, s := range m.Solids {
		n += len(s.Faces)
	}
	return n
}

// WriteOBJ writes the mesh as OBJ text: one "o" group per solid named
// <mesh>_<index>, then its vertices, then its faces with 1-based indices
// that run across the whole file.
func (m *Mesh) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s: %d solids\n", m.Name, len(m.Solids))

	base := 1
	for i, s := range m.Solids {
		fmt.Fprintf(bw, "o %s_%d\n", m.Name, i)
		for _, v := range s.Vertices {
			fmt.Fprintf(bw, "v %s %s %s\n", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
		}
		for _, f := range s.Faces {
			fmt.Fprintf(bw, "f %d %d %d\n", f[0]+base, f[1]+base, f[2]+base)
		}
		base += len(s.Vertices)
	}
	return bw.Flush()
}

// MarshalOBJ returns the OBJ text of the mesh.
func (m *Mesh) MarshalOBJ() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.WriteOBJ(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(f float64) string {
	// Avoid "-0" in the output.
	if f == 0 || math.Abs(f) < 1e-12 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
