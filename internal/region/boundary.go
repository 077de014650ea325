package region

import (
	"fmt"

	"qr-extrude/pkg/geometry"

	"gocv.io/x/gocv"
)

// ExtractOptions configures boundary extraction.
type ExtractOptions struct {
	CannyLow      float32 `yaml:"canny_low"`      // Lower hysteresis threshold
	CannyHigh     float32 `yaml:"canny_high"`     // Upper hysteresis threshold
	EpsilonFactor float64 `yaml:"epsilon_factor"` // Simplification tolerance as a fraction of arc length
}

// DefaultExtractOptions returns the thresholds the reference camera setup was
// tuned with.
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		CannyLow:      50,
		CannyHigh:     150,
		EpsilonFactor: 0.02,
	}
}

// Validate checks the option ranges.
func (o ExtractOptions) Validate() error {
	if o.CannyLow < 0 || o.CannyHigh < o.CannyLow {
		return fmt.Errorf("canny thresholds out of order: %.1f/%.1f", o.CannyLow, o.CannyHigh)
	}
	if o.EpsilonFactor < 0 {
		return fmt.Errorf("negative epsilon factor %.3f", o.EpsilonFactor)
	}
	return nil
}

// ExtractBoundaries finds the outer boundaries of the regions in a mask and
// simplifies each one into a polygon.
//
// Pipeline: grayscale, Canny edges (aperture 3), external contours with simple
// chain approximation, then Douglas-Peucker with epsilon proportional to each
// contour's closed arc length. Holes are not reported. Contours that simplify
// to fewer than three vertices are dropped. A mask with nothing in it yields
// no polygons and no error.
func ExtractBoundaries(mask gocv.Mat, opts ExtractOptions) ([]geometry.Polygon, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if mask.Empty() {
		return nil, nil
	}

	gray, err := toGray(mask)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, opts.CannyLow, opts.CannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var polygons []geometry.Polygon
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		epsilon := opts.EpsilonFactor * gocv.ArcLength(contour, true)

		approx := gocv.ApproxPolyDP(contour, epsilon, true)
		pts := approx.ToPoints()
		approx.Close()

		if len(pts) < 3 {
			continue
		}

		poly := make(geometry.Polygon, len(pts))
		for j, pt := range pts {
			poly[j] = geometry.FromImagePoint(pt)
		}
		polygons = append(polygons, poly)
	}

	return polygons, nil
}

// toGray converts a 1, 3 or 4 channel mask to single-channel grayscale.
// Multi-channel masks are assumed to be in RGB(A) order.
func toGray(src gocv.Mat) (gocv.Mat, error) {
	switch src.Channels() {
	case 1:
		return src.Clone(), nil
	case 3:
		gray := gocv.NewMat()
		gocv.CvtColor(src, &gray, gocv.ColorRGBToGray)
		return gray, nil
	case 4:
		gray := gocv.NewMat()
		gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray)
		return gray, nil
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
}
