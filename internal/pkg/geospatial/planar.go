// Package geospatial holds small planar vector helpers shared by the
// geometry engine. Everything works in map units on a projected plane;
// there is no geodesic math anywhere in this system.
package geospatial

import (
	"math"

	"github.com/paulmach/orb"
)

// Sub returns a - b.
func Sub(a, b orb.Point) orb.Point {
	return orb.Point{a[0] - b[0], a[1] - b[1]}
}

// Add returns a + b.
func Add(a, b orb.Point) orb.Point {
	return orb.Point{a[0] + b[0], a[1] + b[1]}
}

// Scale returns v * s.
func Scale(v orb.Point, s float64) orb.Point {
	return orb.Point{v[0] * s, v[1] * s}
}

// Dot returns the dot product of two vectors.
func Dot(a, b orb.Point) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

// Norm returns the Euclidean length of v.
func Norm(v orb.Point) float64 {
	return math.Hypot(v[0], v[1])
}

// Dist returns the distance between two points.
func Dist(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

// UnitNormal returns the left-hand unit normal of the segment a→b, or a zero
// vector for a degenerate segment.
func UnitNormal(a, b orb.Point) orb.Point {
	d := Sub(b, a)
	l := Norm(d)
	if l == 0 {
		return orb.Point{}
	}
	return orb.Point{-d[1] / l, d[0] / l}
}

// Lerp interpolates between a and b; t=0 yields a, t=1 yields b.
func Lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// LineIntersection returns the intersection of the infinite lines through
// p1 with direction d1 and p2 with direction d2. ok is false when the lines
// are parallel.
func LineIntersection(p1, d1, p2, d2 orb.Point) (orb.Point, bool) {
	denom := d1[0]*d2[1] - d1[1]*d2[0]
	if math.Abs(denom) < 1e-12 {
		return orb.Point{}, false
	}
	t := ((p2[0]-p1[0])*d2[1] - (p2[1]-p1[1])*d2[0]) / denom
	return Add(p1, Scale(d1, t)), true
}

// OnSegment reports whether p lies on the segment a→b, within eps.
func OnSegment(p, a, b orb.Point, eps float64) bool {
	cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	seg := Dist(a, b)
	if seg == 0 {
		return Dist(p, a) <= eps
	}
	if math.Abs(cross)/seg > eps {
		return false
	}
	d := Dot(Sub(p, a), Sub(b, a))
	return d >= -eps*seg && d <= seg*seg+eps*seg
}
