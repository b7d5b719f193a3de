package geometry_test

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/geometry"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

func bufferParams(dist, miterLimit float64) domain.BufferParams {
	return domain.BufferParams{
		Distance:   dist,
		Segments:   5,
		EndCapFlat: true,
		JoinMiter:  true,
		MiterLimit: miterLimit,
	}
}

func ringHasPoint(ring orb.Ring, want orb.Point) bool {
	for _, p := range ring {
		if math.Abs(p[0]-want[0]) < 1e-9 && math.Abs(p[1]-want[1]) < 1e-9 {
			return true
		}
	}
	return false
}

func TestBuffer_StraightLineFlatCaps(t *testing.T) {
	e := geometry.New()
	in := &domain.LineFeatureSet{
		CRS:   "EPSG:25830",
		Lines: []orb.LineString{line(orb.Point{0, 0}, orb.Point{10, 0})},
	}

	out, err := e.Buffer(context.Background(), in, bufferParams(2, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("expected 1 polygon, got %d", out.Len())
	}

	b := out.Polygons[0].Bound()
	want := orb.Bound{Min: orb.Point{0, -2}, Max: orb.Point{10, 2}}
	// Flat caps: the polygon never extends past the line ends
	if b.Min[0] < want.Min[0]-1e-9 || b.Max[0] > want.Max[0]+1e-9 {
		t.Errorf("bound %v extends past the flat caps, want %v", b, want)
	}
	if math.Abs(b.Min[1]-want.Min[1]) > 1e-9 || math.Abs(b.Max[1]-want.Max[1]) > 1e-9 {
		t.Errorf("bound %v, want width 2x%g: %v", b, 2.0, want)
	}

	if area := math.Abs(planar.Area(out.Polygons[0])); math.Abs(area-40) > 1e-9 {
		t.Errorf("area %g, want 40 for a 10x4 rectangle", area)
	}
}

func TestBuffer_MiterJoin(t *testing.T) {
	e := geometry.New()
	in := &domain.LineFeatureSet{
		Lines: []orb.LineString{line(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{10, 10})},
	}

	out, err := e.Buffer(context.Background(), in, bufferParams(2, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A right angle miters to the offset corner: sqrt(2)*dist < 2*dist
	if !ringHasPoint(out.Polygons[0][0][0], orb.Point{12, -2}) {
		t.Errorf("expected mitered corner at (12,-2), ring %v", out.Polygons[0][0][0])
	}
}

func TestBuffer_MiterLimitBevels(t *testing.T) {
	e := geometry.New()
	in := &domain.LineFeatureSet{
		Lines: []orb.LineString{line(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{10, 10})},
	}

	out, err := e.Buffer(context.Background(), in, bufferParams(2, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ring := out.Polygons[0][0][0]
	if ringHasPoint(ring, orb.Point{12, -2}) {
		t.Errorf("corner was mitered past the limit, ring %v", ring)
	}
	// The bevel keeps both raw offset ends instead
	if !ringHasPoint(ring, orb.Point{12, 0}) || !ringHasPoint(ring, orb.Point{10, -2}) {
		t.Errorf("expected bevel points (12,0) and (10,-2), ring %v", ring)
	}
}

func TestBuffer_OnePolygonPerFeature(t *testing.T) {
	e := geometry.New()
	in := &domain.LineFeatureSet{
		Lines: []orb.LineString{
			line(orb.Point{0, 0}, orb.Point{10, 0}),
			line(orb.Point{0, 20}, orb.Point{10, 20}),
		},
	}

	out, err := e.Buffer(context.Background(), in, bufferParams(2, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected one polygon per input feature, got %d", out.Len())
	}
}

func TestBuffer_DegenerateLine(t *testing.T) {
	e := geometry.New()
	in := &domain.LineFeatureSet{
		Lines: []orb.LineString{line(orb.Point{3, 3}, orb.Point{3, 3})},
	}
	if _, err := e.Buffer(context.Background(), in, bufferParams(2, 2)); err == nil {
		t.Error("expected error for a line with one distinct vertex")
	}
}

func TestBuffer_InvalidDistance(t *testing.T) {
	e := geometry.New()
	in := &domain.LineFeatureSet{Lines: []orb.LineString{line(orb.Point{0, 0}, orb.Point{1, 0})}}
	if _, err := e.Buffer(context.Background(), in, bufferParams(0, 2)); err == nil {
		t.Error("expected error for zero distance")
	}
}
