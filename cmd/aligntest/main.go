// Command aligntest solves the marker pose for a set of corners and prints
// the homographies, the extended target and optionally rectified points.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"qr-extrude/internal/alignment"
	"qr-extrude/internal/fiducial"
	"qr-extrude/internal/frame"
	"qr-extrude/pkg/geometry"
)

func main() {
	corners := flag.String("c", "", "Marker corners TL,TR,BR,BL as x1,y1,x2,y2,x3,y3,x4,y4")
	image := flag.String("i", "", "Detect the marker in this image instead of -c")
	points := flag.String("p", "", "Image points to rectify as x,y;x,y;...")
	size := flag.Float64("s", alignment.DefaultDimensions().MarkerSize, "Marker edge length")
	flag.Parse()

	dims := alignment.DefaultDimensions()
	dims.MarkerSize = *size

	var quad geometry.Quad
	switch {
	case *image != "":
		q, err := detect(*image)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
			os.Exit(1)
		}
		quad = q
	case *corners != "":
		q, err := parseQuad(*corners)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bad corners: %v\n", err)
			os.Exit(1)
		}
		quad = q
	default:
		fmt.Println("Usage: aligntest (-c x1,y1,...,x4,y4 | -i image) [-s size] [-p x,y;x,y]")
		os.Exit(1)
	}

	fmt.Printf("=== Marker corners ===\n")
	for i, name := range []string{"TL", "TR", "BR", "BL"} {
		fmt.Printf("  %s: (%.2f, %.2f)\n", name, quad[i].X, quad[i].Y)
	}

	toImage, err := alignment.MarkerToImage(quad, dims.MarkerSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pose failed: %v\n", err)
		os.Exit(1)
	}
	printMatrix("marker -> image", toImage)

	toMarker, err := alignment.ImageToMarker(quad, dims.MarkerSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Inverse pose failed: %v\n", err)
		os.Exit(1)
	}
	printMatrix("image -> marker", toMarker)

	target, err := alignment.ExtendFiducial(quad, dims)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extend failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n=== Target %.2f x %.2f in image ===\n", dims.TargetWidth, dims.TargetHeight)
	for i, name := range []string{"TL", "TR", "BR", "BL"} {
		fmt.Printf("  %s: (%.2f, %.2f)\n", name, target[i].X, target[i].Y)
	}

	if *points == "" {
		return
	}
	poly, err := parsePoints(*points)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad points: %v\n", err)
		os.Exit(1)
	}
	out, err := alignment.RectifyBoundaries([]geometry.Polygon{poly}, toMarker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Rectify failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n=== Rectified points ===\n")
	for i, p := range out[0] {
		fmt.Printf("  (%.2f, %.2f) -> (%.3f, %.3f)\n", poly[i].X, poly[i].Y, p.X, p.Y)
	}
	if len(out[0]) >= 3 {
		fmt.Printf("  area: %.3f\n", out[0].Area())
	}
}

func detect(path string) (geometry.Quad, error) {
	m, err := frame.LoadMat(path)
	if err != nil {
		return geometry.Quad{}, err
	}
	defer m.Close()

	d := fiducial.NewDetector()
	defer d.Close()
	det, err := d.Detect(m)
	if err != nil {
		return geometry.Quad{}, err
	}
	fmt.Printf("Payload: %q\n", det.Payload)
	return det.Corners, nil
}

func printMatrix(title string, h geometry.Homography) {
	fmt.Printf("\n=== %s (%s) ===\n", title, h.Dir)
	for _, row := range h.M {
		fmt.Printf("  %12.6g %12.6g %12.6g\n", row[0], row[1], row[2])
	}
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseQuad(s string) (geometry.Quad, error) {
	vals, err := parseFloats(s)
	if err != nil {
		return geometry.Quad{}, err
	}
	if len(vals) != 8 {
		return geometry.Quad{}, fmt.Errorf("want 8 values, got %d", len(vals))
	}
	var q geometry.Quad
	for i := range q {
		q[i] = geometry.Point2D{X: vals[2*i], Y: vals[2*i+1]}
	}
	return q, nil
}

func parsePoints(s string) (geometry.Polygon, error) {
	vals, err := parseFloats(s)
	if err != nil {
		return nil, err
	}
	if len(vals)%2 != 0 {
		return nil, fmt.Errorf("odd number of coordinates")
	}
	poly := make(geometry.Polygon, len(vals)/2)
	for i := range poly {
		poly[i] = geometry.Point2D{X: vals[2*i], Y: vals[2*i+1]}
	}
	return poly, nil
}
