package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/geometry"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/gisio"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/usecases"
)

// wideSurface covers x in [-10,30], y in [-15,15] with a constant value.
func wideSurface(name string, value float64, bands int) *domain.RasterSurface {
	s := &domain.RasterSurface{
		Name:     name,
		CRS:      testCRS,
		Cols:     8,
		Rows:     6,
		OriginX:  -10,
		OriginY:  15,
		CellSize: 5,
		NoData:   -9999,
	}
	for b := 0; b < bands; b++ {
		values := make([]float64, s.Cols*s.Rows)
		for i := range values {
			values[i] = value + float64(b)
		}
		s.Bands = append(s.Bands, domain.RasterBand{Values: values})
	}
	return s
}

// testInputs is a 20-unit straight centerline inside a 20x20 corridor.
func testInputs() *usecases.PipelineInputs {
	return &usecases.PipelineInputs{
		Centerline: &domain.LineFeatureSet{
			CRS:   testCRS,
			Lines: []orb.LineString{{{0, 0}, {20, 0}}},
		},
		Corridor: &domain.PolygonFeatureSet{
			CRS: testCRS,
			Polygons: []orb.MultiPolygon{{{orb.Ring{
				{0, -10}, {20, -10}, {20, 10}, {0, 10}, {0, -10},
			}}}},
		},
		Terrain: wideSurface("dtm", 100, 1),
		Surface: wideSurface("dsm", 200, 1),
	}
}

func newPipeline() *usecases.PipelineService {
	return usecases.NewPipelineService(geometry.New(), gisio.NewSampler())
}

func TestPipeline_Run(t *testing.T) {
	result, err := newPipeline().Run(context.Background(), testInputs(), domain.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Line sampling walks the buffer boundary (perimeter 48) and the
	// centerline (length 20): floor(48/5)+1 + floor(20/5)+1.
	if result.Counts.LinePoints != 15 {
		t.Errorf("line points = %d, want 15", result.Counts.LinePoints)
	}
	// The 20x20 corridor tiles into 4x4 cells of 5 units, all inside.
	if result.Counts.GridCells != 16 {
		t.Errorf("grid cells = %d, want 16", result.Counts.GridCells)
	}
	if result.Counts.Centroids != 16 {
		t.Errorf("centroids = %d, want 16", result.Counts.Centroids)
	}
	// Every cell centroid sits at least 2.5 units from the centerline,
	// outside the 2-unit buffer, so deduplication drops nothing here.
	if result.Counts.Remaining != 16 {
		t.Errorf("remaining centroids = %d, want 16", result.Counts.Remaining)
	}
	if result.Counts.Merged != result.Counts.LinePoints+result.Counts.Remaining {
		t.Errorf("merged = %d, want %d", result.Counts.Merged, result.Counts.LinePoints+result.Counts.Remaining)
	}

	if len(result.Outputs) != 2 {
		t.Fatalf("expected 2 outputs in single-band mode, got %d", len(result.Outputs))
	}
	terrain, surface := result.Outputs[0], result.Outputs[1]
	if terrain.Name != usecases.RoleTerrain || surface.Name != usecases.RoleSurface {
		t.Errorf("output names %q, %q, want DTM, DSM", terrain.Name, surface.Name)
	}
	// Surface extraction chains onto the terrain output
	if len(terrain.Points.Fields) != 1 || terrain.Points.Fields[0] != "DTM" {
		t.Errorf("terrain fields %v, want [DTM]", terrain.Points.Fields)
	}
	if len(surface.Points.Fields) != 2 || surface.Points.Fields[1] != "DSM" {
		t.Errorf("surface fields %v, want [DTM DSM]", surface.Points.Fields)
	}
	if surface.Points.Len() != result.Counts.Merged {
		t.Errorf("output carries %d points, want %d", surface.Points.Len(), result.Counts.Merged)
	}
	for i, p := range surface.Points.Points {
		if p.Attributes["DTM"] != 100 || p.Attributes["DSM"] != 200 {
			t.Fatalf("point %d attributes %v, want DTM=100 DSM=200", i, p.Attributes)
		}
	}
}

func TestPipeline_CentroidsNearCenterlineDropped(t *testing.T) {
	in := testInputs()
	params := domain.DefaultParams()
	params.BufferDistance = 3 // buffer now swallows the first centroid row

	result, err := newPipeline().Run(context.Background(), in, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Centroid rows sit at y = ±2.5 and ±7.5; the ±2.5 rows intersect a
	// 3-unit buffer and are dropped.
	if result.Counts.Centroids != 16 {
		t.Errorf("centroids = %d, want 16", result.Counts.Centroids)
	}
	if result.Counts.Remaining != 8 {
		t.Errorf("remaining = %d, want 8 after dropping the rows inside the buffer", result.Counts.Remaining)
	}
}

func TestPipeline_OverlappingCorridorPolygons(t *testing.T) {
	in := testInputs()
	// A corridor layer with two overlapping polygons must not double the
	// surviving cells or their centroids.
	in.Corridor.Polygons = []orb.MultiPolygon{
		{{orb.Ring{{0, -10}, {20, -10}, {20, 10}, {0, 10}, {0, -10}}}},
		{{orb.Ring{{5, -10}, {20, -10}, {20, 10}, {5, 10}, {5, -10}}}},
	}

	result, err := newPipeline().Run(context.Background(), in, domain.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Counts.GridCells != 16 {
		t.Errorf("grid cells = %d, want 16 over a 20x20 extent", result.Counts.GridCells)
	}
	if result.Counts.Centroids != 16 {
		t.Errorf("centroids = %d, want one per surviving cell", result.Counts.Centroids)
	}
}

func TestPipeline_MultiBand(t *testing.T) {
	in := testInputs()
	in.Terrain = wideSurface("dtm", 100, 2)
	in.Surface = wideSurface("dsm", 200, 1)
	params := domain.DefaultParams()
	params.MultiBand = true

	result, err := newPipeline().Run(context.Background(), in, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Outputs) != 1 {
		t.Fatalf("expected 1 combined output in multi-band mode, got %d", len(result.Outputs))
	}
	out := result.Outputs[0]
	if out.Name != "extracted_points" {
		t.Errorf("output name %q, want extracted_points", out.Name)
	}
	wantFields := []string{"DTM_Band_1", "DTM_Band_2", "DSM_Band_1"}
	if len(out.Points.Fields) != len(wantFields) {
		t.Fatalf("fields %v, want %v", out.Points.Fields, wantFields)
	}
	for i, want := range wantFields {
		if out.Points.Fields[i] != want {
			t.Errorf("field %d = %q, want %q", i, out.Points.Fields[i], want)
		}
	}
	p := out.Points.Points[0]
	if p.Attributes["DTM_Band_2"] != 101 || p.Attributes["DSM_Band_1"] != 200 {
		t.Errorf("attributes %v, want DTM_Band_2=101 DSM_Band_1=200", p.Attributes)
	}
}

func TestPipeline_DegenerateCenterline(t *testing.T) {
	in := testInputs()
	in.Centerline.Lines = []orb.LineString{{{5, 5}, {5, 5}}}

	_, err := newPipeline().Run(context.Background(), in, domain.DefaultParams())
	var geomErr *domain.GeometryOperationError
	if !errors.As(err, &geomErr) {
		t.Fatalf("expected GeometryOperationError, got %v", err)
	}
	if geomErr.Stage != "buffer" {
		t.Errorf("failed stage %q, want buffer", geomErr.Stage)
	}
}

func TestPipeline_IncompleteInputs(t *testing.T) {
	in := testInputs()
	in.Surface = nil
	if _, err := newPipeline().Run(context.Background(), in, domain.DefaultParams()); err == nil {
		t.Fatal("expected error for missing surface raster")
	}
}

func TestPipeline_OutOfCoverageSentinel(t *testing.T) {
	in := testInputs()
	// Shrink the terrain raster so the corridor's outer centroids fall
	// outside its coverage.
	in.Terrain = &domain.RasterSurface{
		Name:     "dtm",
		CRS:      testCRS,
		Cols:     2,
		Rows:     2,
		OriginX:  5,
		OriginY:  5,
		CellSize: 5,
		NoData:   -9999,
		Bands:    []domain.RasterBand{{Values: []float64{100, 100, 100, 100}}},
	}

	result, err := newPipeline().Run(context.Background(), in, domain.DefaultParams())
	if err != nil {
		t.Fatalf("coverage gaps must not fail the run, got: %v", err)
	}
	sentinels := 0
	for _, p := range result.Outputs[0].Points.Points {
		if p.Attributes["DTM"] == -9999 {
			sentinels++
		}
	}
	if sentinels == 0 {
		t.Error("expected nodata sentinels for points outside raster coverage")
	}
}
