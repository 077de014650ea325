package alignment

import (
	"errors"
	"fmt"

	"qr-extrude/pkg/geometry"

	"go.uber.org/multierr"
)

// ErrWrongDirection is returned when a homography tagged for one direction is
// passed where the other is required.
var ErrWrongDirection = errors.New("homography has wrong direction")

// RectifyBoundaries maps every polygon from image space into the physical
// frame. Vertex count and order are preserved per polygon. A polygon with a
// vertex that maps to infinity is dropped; the remaining polygons are still
// returned together with the combined per-polygon errors.
func RectifyBoundaries(polygons []geometry.Polygon, h geometry.Homography) ([]geometry.Polygon, error) {
	if h.Dir != geometry.ImageToPhysical {
		return nil, fmt.Errorf("rectify needs %s, got %s: %w",
			geometry.ImageToPhysical, h.Dir, ErrWrongDirection)
	}

	out := make([]geometry.Polygon, 0, len(polygons))
	var errs error
	for i, poly := range polygons {
		pts, err := h.ApplyAll(poly)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("polygon %d: %w", i, err))
			continue
		}
		out = append(out, geometry.Polygon(pts))
	}
	return out, errs
}
