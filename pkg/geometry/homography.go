package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingularMap is returned when a point maps to infinity under a
// projective transform (the homogeneous coordinate vanishes).
var ErrSingularMap = errors.New("point maps to infinity")

// Direction tags which plane a homography maps from and to.
type Direction int

const (
	// DirectionUnknown is the zero value; such a matrix is only usable where
	// the caller tracks direction itself.
	DirectionUnknown Direction = iota
	// PhysicalToImage maps physical marker-frame coordinates into image pixels.
	PhysicalToImage
	// ImageToPhysical maps image pixels into physical marker-frame coordinates.
	ImageToPhysical
)

func (d Direction) String() string {
	switch d {
	case PhysicalToImage:
		return "physical->image"
	case ImageToPhysical:
		return "image->physical"
	default:
		return "unknown"
	}
}

// Inverse returns the opposite direction.
func (d Direction) Inverse() Direction {
	switch d {
	case PhysicalToImage:
		return ImageToPhysical
	case ImageToPhysical:
		return PhysicalToImage
	default:
		return DirectionUnknown
	}
}

// Homography represents a 3x3 projective transformation, defined up to scale.
// [h00 h01 h02]
// [h10 h11 h12]
// [h20 h21 h22]
type Homography struct {
	M   [3][3]float64
	Dir Direction
}

// NewHomography creates a homography from 9 row-major values.
func NewHomography(vals []float64, dir Direction) (Homography, error) {
	if len(vals) != 9 {
		return Homography{}, fmt.Errorf("homography needs 9 values, got %d", len(vals))
	}
	var h Homography
	for i := 0; i < 9; i++ {
		h.M[i/3][i%3] = vals[i]
	}
	h.Dir = dir
	return h, nil
}

// IdentityHomography returns the identity map tagged with dir.
func IdentityHomography(dir Direction) Homography {
	return Homography{
		M:   [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Dir: dir,
	}
}

// minW is the relative magnitude below which the homogeneous coordinate is
// treated as zero.
const minW = 1e-12

// Apply transforms a point, including the perspective divide.
func (h Homography) Apply(p Point2D) (Point2D, error) {
	m := h.M
	xp := m[0][0]*p.X + m[0][1]*p.Y + m[0][2]
	yp := m[1][0]*p.X + m[1][1]*p.Y + m[1][2]
	w := m[2][0]*p.X + m[2][1]*p.Y + m[2][2]

	if math.Abs(w) <= minW*(math.Abs(xp)+math.Abs(yp)+1) {
		return Point2D{}, fmt.Errorf("(%.3f, %.3f): %w", p.X, p.Y, ErrSingularMap)
	}
	out := Point2D{X: xp / w, Y: yp / w}
	if !out.IsFinite() {
		return Point2D{}, fmt.Errorf("(%.3f, %.3f): %w", p.X, p.Y, ErrSingularMap)
	}
	return out, nil
}

// ApplyAll transforms every point in order. It fails on the first point that
// maps to infinity.
func (h Homography) ApplyAll(points []Point2D) ([]Point2D, error) {
	out := make([]Point2D, len(points))
	for i, p := range points {
		q, err := h.Apply(p)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = q
	}
	return out, nil
}

// ApplyQuad transforms the four corners of a quad.
func (h Homography) ApplyQuad(q Quad) (Quad, error) {
	var out Quad
	for i, p := range q {
		t, err := h.Apply(p)
		if err != nil {
			return Quad{}, fmt.Errorf("corner %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// Dense returns the matrix as a gonum Dense.
func (h Homography) Dense() *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			d.Set(r, c, h.M[r][c])
		}
	}
	return d
}

// FromDense builds a homography from a 3x3 gonum matrix.
func FromDense(m mat.Matrix, dir Direction) Homography {
	h := Homography{Dir: dir}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h.M[r][c] = m.At(r, c)
		}
	}
	return h
}

// Inverse returns the inverse transform with the opposite direction tag.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(h.Dense()); err != nil {
		return Homography{}, fmt.Errorf("invert homography: %w", err)
	}
	return FromDense(&inv, h.Dir.Inverse()), nil
}
