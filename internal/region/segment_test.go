package region

import (
	"errors"
	"testing"

	"qr-extrude/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func matFromPixels(t *testing.T, px ...[4]uint8) gocv.Mat {
	t.Helper()
	data := make([]byte, 0, 4*len(px))
	for _, p := range px {
		data = append(data, p[:]...)
	}
	tmp, err := gocv.NewMatFromBytes(1, len(px), gocv.MatTypeCV8UC4, data)
	require.NoError(t, err)
	defer tmp.Close()
	return tmp.Clone()
}

func pixelsOf(t *testing.T, m gocv.Mat) [][4]uint8 {
	t.Helper()
	raw := m.ToBytes()
	require.Equal(t, 0, len(raw)%4)
	out := make([][4]uint8, len(raw)/4)
	for i := range out {
		copy(out[i][:], raw[4*i:4*i+4])
	}
	return out
}

func TestSegmentByColorToleranceIsInclusive(t *testing.T) {
	frame := matFromPixels(t,
		[4]uint8{150, 50, 150, 200}, // every channel exactly at the edge
		[4]uint8{151, 100, 100, 255},
		[4]uint8{100, 49, 100, 255},
		[4]uint8{100, 100, 100, 0}, // alpha plays no part
		[4]uint8{90, 110, 95, 17},
	)
	defer frame.Close()

	out, err := SegmentByColor(frame, colorutil.RGB{R: 100, G: 100, B: 100}, 50)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, [][4]uint8{
		{150, 50, 150, 200},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{100, 100, 100, 0},
		{90, 110, 95, 17},
	}, pixelsOf(t, out))
}

func TestSegmentByColorClampsBounds(t *testing.T) {
	frame := matFromPixels(t,
		[4]uint8{255, 0, 0, 255},
		[4]uint8{205, 50, 50, 255},
		[4]uint8{204, 0, 0, 255},
		[4]uint8{0, 90, 255, 255},
	)
	defer frame.Close()

	out, err := SegmentByColor(frame, colorutil.RGB{R: 255}, 50)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, [][4]uint8{
		{255, 0, 0, 255},
		{205, 50, 50, 255},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, pixelsOf(t, out))
}

func TestSegmentByColorZeroTolerance(t *testing.T) {
	frame := matFromPixels(t, [4]uint8{30, 255, 0, 255}, [4]uint8{31, 255, 0, 255})
	defer frame.Close()

	out, err := SegmentByColor(frame, colorutil.RGB{R: 30, G: 255}, 0)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, [][4]uint8{{30, 255, 0, 255}, {0, 0, 0, 0}}, pixelsOf(t, out))
}

func TestSegmentByColorRejectsBadInput(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	_, err := SegmentByColor(empty, colorutil.RGB{}, 10)
	assert.True(t, errors.Is(err, ErrUnsupportedFrame), "got %v", err)

	gray := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC1)
	defer gray.Close()
	_, err = SegmentByColor(gray, colorutil.RGB{}, 10)
	assert.True(t, errors.Is(err, ErrUnsupportedFrame), "got %v", err)

	frame := matFromPixels(t, [4]uint8{1, 2, 3, 4})
	defer frame.Close()
	_, err = SegmentByColor(frame, colorutil.RGB{}, -1)
	assert.Error(t, err)
}
