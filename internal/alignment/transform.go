// Package alignment registers image space against the physical marker frame:
// homography estimation from four correspondences, extension of the marker
// quad to the target region, and rectification of image boundaries.
package alignment

import (
	"errors"
	"fmt"
	"math"

	"qr-extrude/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateCorrespondence is returned when four point pairs do not
// determine a unique homography (collinear or coincident points).
var ErrDegenerateCorrespondence = errors.New("degenerate correspondence")

// collinearTol is the relative cross-product magnitude under which three
// points are treated as lying on one line.
const collinearTol = 1e-9

// nullspaceTol is the ratio of the second-smallest to the largest eigenvalue
// of AᵗA under which the solution is not unique.
const nullspaceTol = 1e-12

// Correspondence pairs four source corners with four destination corners.
// Index i of Src corresponds to index i of Dst.
type Correspondence struct {
	Src geometry.Quad
	Dst geometry.Quad
}

// SolveHomography computes the projective transform mapping c.Src onto c.Dst
// with the direct linear transform: the 8x9 system A·h = 0 is solved by the
// eigenvector of AᵗA with the smallest eigenvalue. Both point sets are
// normalized (centroid at origin, mean distance √2) before solving.
// The result is scaled to unit Frobenius norm; callers must not rely on a
// particular scale. dir tags which way the matrix maps.
func SolveHomography(c Correspondence, dir geometry.Direction) (geometry.Homography, error) {
	if err := checkQuad(c.Src); err != nil {
		return geometry.Homography{}, fmt.Errorf("source points: %w", err)
	}
	if err := checkQuad(c.Dst); err != nil {
		return geometry.Homography{}, fmt.Errorf("destination points: %w", err)
	}

	srcT, src := normalizeQuad(c.Src)
	dstT, dst := normalizeQuad(c.Dst)

	// Two rows per correspondence:
	// [-x -y -1  0  0  0  x·x' y·x' x']
	// [ 0  0  0 -x -y -1  x·y' y·y' y']
	a := mat.NewDense(8, 9, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		xp, yp := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, x * xp, y * xp, xp})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, x * yp, y * yp, yp})
	}

	var ata mat.SymDense
	ata.SymOuterK(1, a.T())

	var eig mat.EigenSym
	if ok := eig.Factorize(&ata, true); !ok {
		return geometry.Homography{}, fmt.Errorf("eigen decomposition failed: %w", ErrDegenerateCorrespondence)
	}

	// Values are in ascending order.
	values := eig.Values(nil)
	if values[1] <= nullspaceTol*math.Max(values[len(values)-1], 1) {
		return geometry.Homography{}, fmt.Errorf("solution not unique: %w", ErrDegenerateCorrespondence)
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	hn := mat.NewDense(3, 3, nil)
	for i := 0; i < 9; i++ {
		hn.Set(i/3, i%3, vectors.At(i, 0))
	}

	// Undo normalization: H = Tdst⁻¹ · Hn · Tsrc
	var dstInv mat.Dense
	if err := dstInv.Inverse(dstT); err != nil {
		return geometry.Homography{}, fmt.Errorf("destination normalization: %w", ErrDegenerateCorrespondence)
	}
	var h mat.Dense
	h.Product(&dstInv, hn, srcT)

	return scaleHomography(geometry.FromDense(&h, dir)), nil
}

// checkQuad rejects quads where any three corners are collinear or any two
// coincide.
func checkQuad(q geometry.Quad) error {
	for _, t := range [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}} {
		if geometry.Collinear(q[t[0]], q[t[1]], q[t[2]], collinearTol) {
			return fmt.Errorf("corners %d, %d, %d collinear: %w",
				t[0], t[1], t[2], ErrDegenerateCorrespondence)
		}
	}
	return nil
}

// normalizeQuad returns the similarity transform that moves the centroid to
// the origin and scales the mean distance to √2, and the transformed quad.
func normalizeQuad(q geometry.Quad) (*mat.Dense, geometry.Quad) {
	c := geometry.Centroid(q.Points())

	var meanDist float64
	for _, p := range q {
		meanDist += p.Distance(c)
	}
	meanDist /= 4

	s := math.Sqrt2 / meanDist
	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * c.X,
		0, s, -s * c.Y,
		0, 0, 1,
	})

	var out geometry.Quad
	for i, p := range q {
		out[i] = p.Sub(c).Scale(s)
	}
	return t, out
}

// scaleHomography divides by the Frobenius norm and fixes the sign so that
// h22 is non-negative.
func scaleHomography(h geometry.Homography) geometry.Homography {
	var norm float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			norm += h.M[r][c] * h.M[r][c]
		}
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return h
	}
	if h.M[2][2] < 0 {
		norm = -norm
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h.M[r][c] /= norm
		}
	}
	return h
}
