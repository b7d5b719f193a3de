package geometry

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/geospatial"
)

// Buffer offsets every line by the given distance on both sides, producing
// one corridor polygon per input feature. End caps are flat and joins are
// mitered, falling back to a bevel where the miter would exceed
// MiterLimit * Distance. The Segments parameter is carried for the engine
// contract but only affects round joins, which this engine does not produce.
func (e *Engine) Buffer(ctx context.Context, in *domain.LineFeatureSet, p domain.BufferParams) (*domain.PolygonFeatureSet, error) {
	if p.Distance <= 0 {
		return nil, fmt.Errorf("buffer: distance must be positive, got %g", p.Distance)
	}
	out := &domain.PolygonFeatureSet{CRS: in.CRS}
	for i, line := range in.Lines {
		ring, err := bufferLine(line, p.Distance, p.MiterLimit)
		if err != nil {
			return nil, fmt.Errorf("buffer: feature %d: %w", i, err)
		}
		out.Polygons = append(out.Polygons, orb.MultiPolygon{orb.Polygon{ring}})
	}
	if p.Dissolve && len(out.Polygons) > 1 {
		// The corridor builder always runs without dissolve; merging the
		// per-feature polygons into one multipart feature is all the
		// dissolved variant needs for the operations this engine serves.
		merged := out.Polygons[0]
		for _, feature := range out.Polygons[1:] {
			merged = append(merged, feature...)
		}
		out.Polygons = []orb.MultiPolygon{merged}
	}
	return out, nil
}

// bufferLine builds the offset ring of a single polyline: the left offset
// walked forward, then the right offset walked backward, closed with flat
// caps at both ends.
func bufferLine(line orb.LineString, dist, miterLimit float64) (orb.Ring, error) {
	pts := dedupePoints(line)
	if len(pts) < 2 {
		return nil, fmt.Errorf("degenerate line with %d distinct vertices", len(pts))
	}

	left := offsetSide(pts, dist, miterLimit)
	right := offsetSide(reversePoints(pts), dist, miterLimit)

	ring := make(orb.Ring, 0, len(left)+len(right)+1)
	ring = append(ring, left...)
	ring = append(ring, right...)
	ring = append(ring, ring[0])
	return ring, nil
}

// offsetSide returns the polyline offset to the left of pts by dist, with
// mitered joins at interior vertices.
func offsetSide(pts []orb.Point, dist, miterLimit float64) []orb.Point {
	out := make([]orb.Point, 0, len(pts))

	firstN := geospatial.UnitNormal(pts[0], pts[1])
	out = append(out, geospatial.Add(pts[0], geospatial.Scale(firstN, dist)))

	for i := 1; i < len(pts)-1; i++ {
		prevDir := geospatial.Sub(pts[i], pts[i-1])
		nextDir := geospatial.Sub(pts[i+1], pts[i])
		prevN := geospatial.UnitNormal(pts[i-1], pts[i])
		nextN := geospatial.UnitNormal(pts[i], pts[i+1])

		a := geospatial.Add(pts[i], geospatial.Scale(prevN, dist))
		b := geospatial.Add(pts[i], geospatial.Scale(nextN, dist))

		join, ok := geospatial.LineIntersection(a, prevDir, b, nextDir)
		if !ok {
			// Collinear segments: both offsets coincide.
			out = append(out, b)
			continue
		}
		if miterLimit > 0 && geospatial.Dist(join, pts[i]) > miterLimit*dist {
			// Sharp angle: bevel instead of spiking past the miter limit.
			out = append(out, a, b)
			continue
		}
		out = append(out, join)
	}

	lastN := geospatial.UnitNormal(pts[len(pts)-2], pts[len(pts)-1])
	out = append(out, geospatial.Add(pts[len(pts)-1], geospatial.Scale(lastN, dist)))
	return out
}

func dedupePoints(line orb.LineString) []orb.Point {
	out := make([]orb.Point, 0, len(line))
	for _, p := range line {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

func reversePoints(pts []orb.Point) []orb.Point {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}
