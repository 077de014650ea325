package alignment

import (
	"fmt"

	"qr-extrude/pkg/geometry"
)

// Dimensions holds the physical sizes that anchor the marker frame.
// All values share one unit (millimetres in the default setup).
type Dimensions struct {
	MarkerSize   float64 `yaml:"marker_size"`   // Edge length of the square fiducial
	TargetWidth  float64 `yaml:"target_width"`  // Width of the region of interest
	TargetHeight float64 `yaml:"target_height"` // Height of the region of interest
}

// DefaultDimensions returns the sizes of the reference setup: a 77.78 mm QR
// code at the top-left corner of an A3 sheet.
func DefaultDimensions() Dimensions {
	return Dimensions{
		MarkerSize:   77.78,
		TargetWidth:  418.15,
		TargetHeight: 297.68,
	}
}

// Validate checks that all sizes are positive.
func (d Dimensions) Validate() error {
	if d.MarkerSize <= 0 || d.TargetWidth <= 0 || d.TargetHeight <= 0 {
		return fmt.Errorf("dimensions must be positive: marker=%.2f target=%.2fx%.2f",
			d.MarkerSize, d.TargetWidth, d.TargetHeight)
	}
	return nil
}

// MarkerToImage solves the physical→image homography from the detected
// marker corners (TL, TR, BR, BL) and the marker's edge length.
func MarkerToImage(corners geometry.Quad, markerSize float64) (geometry.Homography, error) {
	return SolveHomography(Correspondence{
		Src: geometry.CanonicalRect(markerSize, markerSize),
		Dst: corners,
	}, geometry.PhysicalToImage)
}

// ImageToMarker solves the image→physical homography used to rectify
// boundaries found in the same frame as the marker.
func ImageToMarker(corners geometry.Quad, markerSize float64) (geometry.Homography, error) {
	return SolveHomography(Correspondence{
		Src: corners,
		Dst: geometry.CanonicalRect(markerSize, markerSize),
	}, geometry.ImageToPhysical)
}

// ExtendFiducial returns the image-space corners of the target rectangle that
// extends from the marker's top-left corner, given the marker's observed
// corners. The target is never detected directly; it is extrapolated from the
// marker pose.
func ExtendFiducial(corners geometry.Quad, dims Dimensions) (geometry.Quad, error) {
	if err := dims.Validate(); err != nil {
		return geometry.Quad{}, err
	}

	h, err := MarkerToImage(corners, dims.MarkerSize)
	if err != nil {
		return geometry.Quad{}, fmt.Errorf("marker pose: %w", err)
	}

	extended, err := h.ApplyQuad(geometry.CanonicalRect(dims.TargetWidth, dims.TargetHeight))
	if err != nil {
		return geometry.Quad{}, fmt.Errorf("project target rectangle: %w", err)
	}
	return extended, nil
}
