package fiducial

import (
	"image"
	"image/color"

	"qr-extrude/pkg/colorutil"
	"qr-extrude/pkg/geometry"

	"gocv.io/x/gocv"
)

const annotateThickness = 4

// Annotate returns a BGRA copy of an RGBA frame, ready for gocv.IMWrite,
// with the marker outline in red, the extended target outline in blue and
// each boundary in its category color. boundaries maps a color to the
// image-space polygons found for it.
func Annotate(frame gocv.Mat, marker, target geometry.Quad, boundaries map[colorutil.RGB][]geometry.Polygon) gocv.Mat {
	out := gocv.NewMat()
	// OpenCV's RGBA2BGRA is the same code as BGRA2RGBA; gocv only names the latter.
	gocv.CvtColor(frame, &out, gocv.ColorBGRAToRGBA)

	drawLoop(&out, marker.Points(), colorutil.Red)
	drawLoop(&out, target.Points(), colorutil.Blue)

	for c, polys := range boundaries {
		for _, p := range polys {
			drawLoop(&out, p, c.RGBA())
		}
	}
	return out
}

func drawLoop(dst *gocv.Mat, pts []geometry.Point2D, c color.RGBA) {
	if len(pts) < 2 {
		return
	}
	loop := make([]image.Point, len(pts))
	for i, p := range pts {
		loop[i] = p.ImagePoint()
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{loop})
	defer pv.Close()
	gocv.Polylines(dst, pv, true, c, annotateThickness)
}
