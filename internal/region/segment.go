// Package region isolates colored regions in a frame and extracts their
// simplified outer boundaries.
package region

import (
	"errors"
	"fmt"

	"qr-extrude/pkg/colorutil"

	"gocv.io/x/gocv"
)

// DefaultTolerance is the per-channel color distance accepted by default.
const DefaultTolerance = 50

// ErrUnsupportedFrame is returned for frames that are not 8-bit RGBA.
var ErrUnsupportedFrame = errors.New("frame must be 8-bit RGBA")

// SegmentByColor keeps the pixels of an RGBA frame whose R, G and B each lie
// within tolerance of target (inclusive) and zeroes every other pixel,
// alpha included. Kept pixels are copied unchanged with their alpha. The
// comparison happens in the frame's own channel space; no conversion is made.
// The caller owns the returned Mat.
func SegmentByColor(frame gocv.Mat, target colorutil.RGB, tolerance int) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("segment: %w", ErrUnsupportedFrame)
	}
	if frame.Type() != gocv.MatTypeCV8UC4 {
		return gocv.NewMat(), fmt.Errorf("segment: got type %v: %w", frame.Type(), ErrUnsupportedFrame)
	}
	if tolerance < 0 {
		return gocv.NewMat(), fmt.Errorf("segment: negative tolerance %d", tolerance)
	}

	lower := gocv.NewScalar(
		channelLow(target.R, tolerance),
		channelLow(target.G, tolerance),
		channelLow(target.B, tolerance),
		0,
	)
	upper := gocv.NewScalar(
		channelHigh(target.R, tolerance),
		channelHigh(target.G, tolerance),
		channelHigh(target.B, tolerance),
		255,
	)

	match := gocv.NewMat()
	defer match.Close()
	gocv.InRangeWithScalar(frame, lower, upper, &match)

	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0),
		frame.Rows(), frame.Cols(), gocv.MatTypeCV8UC4)
	frame.CopyToWithMask(&out, match)

	return out, nil
}

func channelLow(v uint8, tol int) float64 {
	return float64(max(0, int(v)-tol))
}

func channelHigh(v uint8, tol int) float64 {
	return float64(min(255, int(v)+tol))
}
