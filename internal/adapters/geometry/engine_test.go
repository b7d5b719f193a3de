package geometry_test

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/geometry"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

func line(pts ...orb.Point) orb.LineString {
	return orb.LineString(pts)
}

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestPointsAlongLines_ExactMultiple(t *testing.T) {
	e := geometry.New()
	in := &domain.LineFeatureSet{
		CRS:   "EPSG:25830",
		Lines: []orb.LineString{line(orb.Point{0, 0}, orb.Point{20, 0})},
	}

	out, err := e.PointsAlongLines(context.Background(), in, 5, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 5 {
		t.Fatalf("expected 5 points for length 20 at interval 5, got %d", out.Len())
	}
	for i, want := range []float64{0, 5, 10, 15, 20} {
		if got := out.Points[i].Geometry[0]; math.Abs(got-want) > 1e-9 {
			t.Errorf("point %d at x=%g, want %g", i, got, want)
		}
	}
}

func TestPointsAlongLines_NonMultiple(t *testing.T) {
	e := geometry.New()
	in := &domain.LineFeatureSet{
		Lines: []orb.LineString{line(orb.Point{0, 0}, orb.Point{12, 0})},
	}

	out, err := e.PointsAlongLines(context.Background(), in, 5, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// floor(12/5)+1: the trailing 2 units get no point
	if out.Len() != 3 {
		t.Fatalf("expected 3 points for length 12 at interval 5, got %d", out.Len())
	}
	if last := out.Points[2].Geometry[0]; math.Abs(last-10) > 1e-9 {
		t.Errorf("last point at x=%g, want 10", last)
	}
}

func TestPointsAlongLines_Offsets(t *testing.T) {
	e := geometry.New()
	in := &domain.LineFeatureSet{
		Lines: []orb.LineString{line(orb.Point{0, 0}, orb.Point{20, 0})},
	}

	out, err := e.PointsAlongLines(context.Background(), in, 5, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 4 {
		t.Fatalf("expected 4 points with 2-unit offsets, got %d", out.Len())
	}
	if first := out.Points[0].Geometry[0]; math.Abs(first-2) > 1e-9 {
		t.Errorf("first point at x=%g, want 2", first)
	}
}

func TestPointsAlongLines_InvalidInterval(t *testing.T) {
	e := geometry.New()
	in := &domain.LineFeatureSet{Lines: []orb.LineString{line(orb.Point{0, 0}, orb.Point{1, 0})}}
	if _, err := e.PointsAlongLines(context.Background(), in, 0, 0, 0); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestCreateGrid_CellCount(t *testing.T) {
	e := geometry.New()
	extent := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{20, 10}}

	grid, err := e.CreateGrid(context.Background(), extent, 5, 5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grid.Len() != 8 {
		t.Fatalf("expected 4x2=8 cells, got %d", grid.Len())
	}
	// First cell sits in the north-west corner
	first := grid.Polygons[0].Bound()
	if first.Min[0] != 0 || first.Max[1] != 10 {
		t.Errorf("first cell bound %v, want NW corner at (0,10)", first)
	}
}

func TestCreateGrid_EmptyExtent(t *testing.T) {
	e := geometry.New()
	extent := orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{5, 5}}
	if _, err := e.CreateGrid(context.Background(), extent, 5, 5, ""); err == nil {
		t.Error("expected error for empty extent")
	}
}

func TestClipPolygons_TruncatesStraddlingCells(t *testing.T) {
	e := geometry.New()
	extent := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{20, 10}}
	grid, err := e.CreateGrid(context.Background(), extent, 5, 5, "")
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	overlay := &domain.PolygonFeatureSet{Polygons: []orb.MultiPolygon{{square(0, 0, 12, 10)}}}

	clipped, err := e.ClipPolygons(context.Background(), grid, overlay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Per row: two whole cells, one truncated to [10,12], one dropped
	if clipped.Len() != 6 {
		t.Fatalf("expected 6 surviving cells, got %d", clipped.Len())
	}
	for _, cell := range clipped.Polygons {
		if b := cell.Bound(); b.Max[0] > 12+1e-9 {
			t.Errorf("cell %v extends past the overlay", b)
		}
	}
}

func TestClipPolygons_OverlappingOverlayEmitsCellOnce(t *testing.T) {
	e := geometry.New()
	extent := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{5, 5}}
	grid, err := e.CreateGrid(context.Background(), extent, 5, 5, "")
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	// Two overlapping corridor polygons, as an undissolved buffer produces
	overlay := &domain.PolygonFeatureSet{Polygons: []orb.MultiPolygon{
		{square(0, 0, 4, 5)},
		{square(2, 0, 5, 5)},
	}}

	clipped, err := e.ClipPolygons(context.Background(), grid, overlay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clipped.Len() != 1 {
		t.Fatalf("cell covered by overlapping overlay polygons survived %d times, want once", clipped.Len())
	}

	centroids, err := e.Centroids(context.Background(), clipped, false)
	if err != nil {
		t.Fatalf("centroids: %v", err)
	}
	if centroids.Len() != 1 {
		t.Fatalf("expected 1 centroid for the surviving cell, got %d", centroids.Len())
	}
}

func TestClipPoints_BoundaryInclusive(t *testing.T) {
	e := geometry.New()
	overlay := &domain.PolygonFeatureSet{Polygons: []orb.MultiPolygon{{square(0, 0, 10, 10)}}}
	in := &domain.PointFeatureSet{Points: []domain.PointFeature{
		{Geometry: orb.Point{5, 5}},   // inside
		{Geometry: orb.Point{10, 5}},  // on edge
		{Geometry: orb.Point{0, 0}},   // on vertex
		{Geometry: orb.Point{11, 5}},  // outside
		{Geometry: orb.Point{5, -1}},  // outside
	}}

	out, err := e.ClipPoints(context.Background(), in, overlay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 3 {
		t.Fatalf("expected 3 points kept, got %d", out.Len())
	}
}

func TestCentroids(t *testing.T) {
	e := geometry.New()
	in := &domain.PolygonFeatureSet{Polygons: []orb.MultiPolygon{{square(0, 0, 10, 10)}}}

	out, err := e.Centroids(context.Background(), in, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("expected 1 centroid, got %d", out.Len())
	}
	c := out.Points[0].Geometry
	if math.Abs(c[0]-5) > 1e-9 || math.Abs(c[1]-5) > 1e-9 {
		t.Errorf("centroid at %v, want (5,5)", c)
	}
}

func TestFilterByPredicate_NegatedIntersects(t *testing.T) {
	e := geometry.New()
	overlay := &domain.PolygonFeatureSet{Polygons: []orb.MultiPolygon{{square(0, 0, 10, 10)}}}
	in := &domain.PointFeatureSet{Points: []domain.PointFeature{
		{Geometry: orb.Point{5, 5}},
		{Geometry: orb.Point{10, 10}},
		{Geometry: orb.Point{15, 5}},
		{Geometry: orb.Point{20, 20}},
	}}

	kept, err := e.FilterByPredicate(context.Background(), in, overlay, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kept.Len() != 2 {
		t.Fatalf("expected 2 points outside the overlay, got %d", kept.Len())
	}
	// The kept set must be disjoint from the overlay
	inside, err := e.ClipPoints(context.Background(), kept, overlay)
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	if inside.Len() != 0 {
		t.Errorf("kept set still intersects the overlay: %d points", inside.Len())
	}

	// Without negation the filter keeps the complement
	intersecting, err := e.FilterByPredicate(context.Background(), in, overlay, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intersecting.Len()+kept.Len() != in.Len() {
		t.Errorf("filter polarity split %d + %d features, want %d", intersecting.Len(), kept.Len(), in.Len())
	}
}

func TestMergePointLayers(t *testing.T) {
	e := geometry.New()
	a := &domain.PointFeatureSet{
		CRS:    "EPSG:25830",
		Fields: []string{"DTM"},
		Points: []domain.PointFeature{{Geometry: orb.Point{0, 0}}, {Geometry: orb.Point{1, 1}}},
	}
	b := &domain.PointFeatureSet{
		CRS:    "EPSG:25830",
		Fields: []string{"DTM", "DSM"},
		Points: []domain.PointFeature{{Geometry: orb.Point{1, 1}}},
	}

	out, err := e.MergePointLayers(context.Background(), []*domain.PointFeatureSet{a, b}, a.CRS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Coincident points are kept, not deduplicated
	if out.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", out.Len())
	}
	if len(out.Fields) != 2 || out.Fields[0] != "DTM" || out.Fields[1] != "DSM" {
		t.Errorf("field union %v, want [DTM DSM]", out.Fields)
	}
}

func TestMergePointLayers_CRSMismatch(t *testing.T) {
	e := geometry.New()
	a := &domain.PointFeatureSet{CRS: "EPSG:25830"}
	b := &domain.PointFeatureSet{CRS: "EPSG:4326"}
	if _, err := e.MergePointLayers(context.Background(), []*domain.PointFeatureSet{a, b}, a.CRS); err == nil {
		t.Error("expected error for CRS mismatch")
	}
}

func TestPolygonBoundaryToLines(t *testing.T) {
	e := geometry.New()
	withHole := square(0, 0, 10, 10)
	withHole = append(withHole, orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}})
	in := &domain.PolygonFeatureSet{CRS: "EPSG:25830", Polygons: []orb.MultiPolygon{{withHole}}}

	out, err := e.PolygonBoundaryToLines(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 boundary lines (outer + hole), got %d", out.Len())
	}
	for i, l := range out.Lines {
		if l[0] != l[len(l)-1] {
			t.Errorf("boundary line %d is not closed", i)
		}
	}
	if out.CRS != in.CRS {
		t.Errorf("CRS %q not carried over", out.CRS)
	}
}
