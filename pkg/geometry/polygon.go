package geometry

import "math"

// Polygon is a closed loop of vertices; the last vertex connects back to the
// first. Vertex order is whatever the producer emitted.
type Polygon []Point2D

// SignedArea returns the shoelace area. Positive means counter-clockwise in a
// y-up frame.
func (p Polygon) SignedArea() float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum / 2
}

// Area returns the absolute enclosed area.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// Dedup returns the polygon with consecutive duplicate vertices removed,
// including a closing vertex that repeats the first.
func (p Polygon) Dedup(eps float64) Polygon {
	out := make(Polygon, 0, len(p))
	for _, v := range p {
		if len(out) > 0 && out[len(out)-1].Distance(v) <= eps {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0].Distance(out[len(out)-1]) <= eps {
		out = out[:len(out)-1]
	}
	return out
}

// Collinear reports whether a, b and c lie on one line, relative to the
// squared extent of the three points.
func Collinear(a, b, c Point2D, relTol float64) bool {
	scale := math.Max(distSq(a, b), math.Max(distSq(b, c), distSq(a, c)))
	if scale == 0 {
		return true
	}
	return math.Abs(crossProduct(a, b, c)) <= relTol*scale
}

// Triangulate splits a polygon into triangles by ear clipping and returns
// index triples into the input. Triangles keep the winding of the input
// polygon. Input that ear clipping cannot resolve (self-intersecting
// loops) falls back to a fan from vertex 0.
func Triangulate(polygon []Point2D) [][3]int {
	n := len(polygon)
	if n < 3 {
		return nil
	}

	idx := make([]int, n)
	ccw := Polygon(polygon).SignedArea() >= 0
	for i := range idx {
		if ccw {
			idx[i] = i
		} else {
			idx[i] = n - 1 - i
		}
	}

	tris := make([][3]int, 0, n-2)
	for len(idx) > 3 {
		m := len(idx)
		clipped := false
		for i := 0; i < m; i++ {
			a, b, c := idx[(i+m-1)%m], idx[i], idx[(i+1)%m]
			if crossProduct(polygon[a], polygon[b], polygon[c]) == 0 {
				// Collinear vertex: drop it without emitting a sliver.
				idx = append(idx[:i], idx[i+1:]...)
				clipped = true
				break
			}
			if !isEar(polygon, idx, a, b, c) {
				continue
			}
			tris = append(tris, orient([3]int{a, b, c}, ccw))
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return fan(len(polygon))
		}
	}
	if crossProduct(polygon[idx[0]], polygon[idx[1]], polygon[idx[2]]) != 0 {
		tris = append(tris, orient([3]int{idx[0], idx[1], idx[2]}, ccw))
	}
	return tris
}

func isEar(poly []Point2D, idx []int, a, b, c int) bool {
	pa, pb, pc := poly[a], poly[b], poly[c]
	if crossProduct(pa, pb, pc) <= 0 {
		return false
	}
	for _, k := range idx {
		if k == a || k == b || k == c {
			continue
		}
		if inTriangle(poly[k], pa, pb, pc) {
			return false
		}
	}
	return true
}

func inTriangle(p, a, b, c Point2D) bool {
	return crossProduct(a, b, p) >= 0 &&
		crossProduct(b, c, p) >= 0 &&
		crossProduct(c, a, p) >= 0
}

// orient returns the triple in the winding of the original polygon.
func orient(t [3]int, ccw bool) [3]int {
	if ccw {
		return t
	}
	return [3]int{t[2], t[1], t[0]}
}

// fan triangulates from vertex 0, keeping the input winding.
func fan(n int) [][3]int {
	tris := make([][3]int, 0, n-2)
	for i := 1; i < n-1; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// distSq computes the squared distance between two points.
func distSq(a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
