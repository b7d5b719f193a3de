package geometry

import (
	"github.com/paulmach/orb"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/geospatial"
)

// edgeEps is the tolerance for the on-boundary test of the intersects
// predicate, in map units.
const edgeEps = 1e-9

// pointIntersects reports whether the point intersects any polygon of the
// overlay. Points exactly on a ring are treated as intersecting: the
// predicate is boundary-inclusive, and that choice is applied consistently
// for clipping and filtering rather than special-cased per stage.
func pointIntersects(pt orb.Point, overlay *domain.PolygonFeatureSet) bool {
	for _, feature := range overlay.Polygons {
		for _, poly := range feature {
			if pointInPolygon(pt, poly) {
				return true
			}
		}
	}
	return false
}

// pointInPolygon tests the point against one polygon: inside the outer ring
// and not strictly inside any hole. On-edge points count as inside for
// every ring, so a point on a hole boundary still intersects.
func pointInPolygon(pt orb.Point, poly orb.Polygon) bool {
	if len(poly) == 0 {
		return false
	}
	if onRing(pt, poly[0]) {
		return true
	}
	if !inRing(pt, poly[0]) {
		return false
	}
	for _, hole := range poly[1:] {
		if onRing(pt, hole) {
			return true
		}
		if inRing(pt, hole) {
			return false
		}
	}
	return true
}

// inRing is a crossing-number test against a closed ring.
func inRing(pt orb.Point, ring orb.Ring) bool {
	inside := false
	n := len(ring)
	if n < 3 {
		return false
	}
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > pt[1]) != (yj > pt[1]) {
			x := xi + (pt[1]-yi)/(yj-yi)*(xj-xi)
			if pt[0] < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// onRing reports whether the point lies on any edge of the ring.
func onRing(pt orb.Point, ring orb.Ring) bool {
	for i := 1; i < len(ring); i++ {
		if geospatial.OnSegment(pt, ring[i-1], ring[i], edgeEps) {
			return true
		}
	}
	return false
}
