// Package fiducial locates the QR marker in a frame.
package fiducial

import (
	"errors"
	"fmt"

	"qr-extrude/pkg/geometry"

	"gocv.io/x/gocv"
)

// ErrNoFiducial is returned when a frame holds no decodable marker. It is
// the normal outcome for most frames and callers should treat it as such.
var ErrNoFiducial = errors.New("no fiducial detected")

// Detection is one located marker.
type Detection struct {
	Corners geometry.Quad // TL, TR, BR, BL in image pixels
	Payload string        // Decoded QR text
}

// Detector wraps an OpenCV QR detector. It is not safe for concurrent use.
type Detector struct {
	qr gocv.QRCodeDetector
}

// NewDetector allocates the underlying OpenCV detector. Call Close when done.
func NewDetector() *Detector {
	return &Detector{qr: gocv.NewQRCodeDetector()}
}

// Close releases the OpenCV detector.
func (d *Detector) Close() error {
	return d.qr.Close()
}

// Detect finds and decodes a QR marker. A marker that is located but cannot
// be decoded is reported as ErrNoFiducial.
func (d *Detector) Detect(frame gocv.Mat) (Detection, error) {
	if frame.Empty() {
		return Detection{}, ErrNoFiducial
	}

	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	payload := d.qr.DetectAndDecode(frame, &points, &straight)
	if payload == "" || points.Empty() {
		return Detection{}, ErrNoFiducial
	}

	raw, err := points.DataPtrFloat32()
	if err != nil {
		return Detection{}, fmt.Errorf("read marker corners: %w", err)
	}
	corners, err := cornersFromFloats(raw)
	if err != nil {
		return Detection{}, err
	}
	return Detection{Corners: corners, Payload: payload}, nil
}

// cornersFromFloats reads four x,y pairs in TL, TR, BR, BL order, the order
// OpenCV reports QR corners in.
func cornersFromFloats(raw []float32) (geometry.Quad, error) {
	if len(raw) < 8 {
		return geometry.Quad{}, fmt.Errorf("marker corners: want 8 values, got %d", len(raw))
	}
	var q geometry.Quad
	for i := range q {
		q[i] = geometry.Point2D{X: float64(raw[2*i]), Y: float64(raw[2*i+1])}
		if !q[i].IsFinite() {
			return geometry.Quad{}, fmt.Errorf("marker corner %d is not finite", i)
		}
	}
	return q, nil
}
