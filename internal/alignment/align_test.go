package alignment

import (
	"errors"
	"testing"

	"qr-extrude/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtendFiducialMatchesPose(t *testing.T) {
	// A known physical→image pose with some perspective.
	pose, err := geometry.NewHomography([]float64{
		2.0, 0.3, 150,
		-0.2, -1.8, 90,
		0.0004, 0.0002, 1,
	}, geometry.PhysicalToImage)
	require.NoError(t, err)

	dims := DefaultDimensions()
	corners, err := pose.ApplyQuad(geometry.CanonicalRect(dims.MarkerSize, dims.MarkerSize))
	require.NoError(t, err)
	want, err := pose.ApplyQuad(geometry.CanonicalRect(dims.TargetWidth, dims.TargetHeight))
	require.NoError(t, err)

	got, err := ExtendFiducial(corners, dims)
	require.NoError(t, err)
	for i := range want {
		assertPointNear(t, want[i], got[i], 1e-6)
	}
}

func TestExtendFiducialAxisAligned(t *testing.T) {
	// Marker of side 77.78 drawn at 1 px per unit with its top-left at (50, 60).
	corners := geometry.Quad{{X: 50, Y: 60}, {X: 127.78, Y: 60}, {X: 127.78, Y: 137.78}, {X: 50, Y: 137.78}}
	dims := DefaultDimensions()

	got, err := ExtendFiducial(corners, dims)
	require.NoError(t, err)

	// Direct solve of the larger rectangle against the same pose.
	direct, err := SolveHomography(Correspondence{
		Src: geometry.CanonicalRect(dims.TargetWidth, dims.TargetHeight),
		Dst: geometry.Quad{
			{X: 50, Y: 60},
			{X: 50 + dims.TargetWidth, Y: 60},
			{X: 50 + dims.TargetWidth, Y: 60 + dims.TargetHeight},
			{X: 50, Y: 60 + dims.TargetHeight},
		},
	}, geometry.PhysicalToImage)
	require.NoError(t, err)
	want, err := direct.ApplyQuad(geometry.CanonicalRect(dims.TargetWidth, dims.TargetHeight))
	require.NoError(t, err)

	for i := range want {
		assertPointNear(t, want[i], got[i], 1e-6)
	}
	assertPointNear(t, geometry.Point2D{X: 468.15, Y: 357.68}, got[geometry.BottomRight], 1e-6)
}

func TestExtendFiducialErrors(t *testing.T) {
	good := geometry.Quad{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	_, err := ExtendFiducial(good, Dimensions{MarkerSize: 0, TargetWidth: 1, TargetHeight: 1})
	assert.Error(t, err)

	collinear := geometry.Quad{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	_, err = ExtendFiducial(collinear, DefaultDimensions())
	assert.True(t, errors.Is(err, ErrDegenerateCorrespondence), "got %v", err)
}

func TestImageToMarkerScenario(t *testing.T) {
	corners := geometry.Quad{{X: 100, Y: 100}, {X: 200, Y: 100}, {X: 200, Y: 200}, {X: 100, Y: 200}}
	h, err := ImageToMarker(corners, 77.78)
	require.NoError(t, err)
	assert.Equal(t, geometry.ImageToPhysical, h.Dir)

	square := geometry.Polygon{{X: 120, Y: 120}, {X: 180, Y: 120}, {X: 180, Y: 180}, {X: 120, Y: 180}}
	out, err := RectifyBoundaries([]geometry.Polygon{square}, h)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0], 4)

	side := 60 * 77.78 / 100
	assertPointNear(t, geometry.Point2D{X: 20 * 0.7778, Y: -20 * 0.7778}, out[0][0], 1e-6)
	assert.InDelta(t, side, out[0][0].Distance(out[0][1]), 1e-6)
	assert.InDelta(t, side, out[0][1].Distance(out[0][2]), 1e-6)
	assert.InDelta(t, side*side, out[0].Area(), 1e-4)
	assert.InDelta(t, 46.67, side, 0.01)
}
