package gisio_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/gisio"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// testSurface is a 2x2 grid with 10-unit cells, top edge at y=20.
// Cell centres: (5,15)=10 (15,15)=20 (5,5)=30 (15,5)=40.
func testSurface(values []float64) *domain.RasterSurface {
	return &domain.RasterSurface{
		Name:     "dtm",
		Cols:     2,
		Rows:     2,
		OriginX:  0,
		OriginY:  20,
		CellSize: 10,
		NoData:   -9999,
		Bands:    []domain.RasterBand{{Values: values}},
	}
}

func pointsAt(pts ...orb.Point) *domain.PointFeatureSet {
	set := &domain.PointFeatureSet{CRS: "EPSG:25830"}
	for _, p := range pts {
		set.Points = append(set.Points, domain.PointFeature{Geometry: p})
	}
	return set
}

func TestSampleAtPoints_BilinearAtCellCentre(t *testing.T) {
	s := gisio.NewSampler()
	surface := testSurface([]float64{10, 20, 30, 40})

	out, err := s.SampleAtPoints(context.Background(), pointsAt(orb.Point{5, 15}), surface, 1, "DTM", domain.ResamplingBilinear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Points[0].Attributes["DTM"]; math.Abs(got-10) > 1e-9 {
		t.Errorf("value at cell centre = %g, want 10", got)
	}
}

func TestSampleAtPoints_BilinearInterpolates(t *testing.T) {
	s := gisio.NewSampler()
	surface := testSurface([]float64{10, 20, 30, 40})

	out, err := s.SampleAtPoints(context.Background(),
		pointsAt(orb.Point{10, 15}, orb.Point{10, 10}), surface, 1, "DTM", domain.ResamplingBilinear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Points[0].Attributes["DTM"]; math.Abs(got-15) > 1e-9 {
		t.Errorf("midpoint of top cells = %g, want 15", got)
	}
	if got := out.Points[1].Attributes["DTM"]; math.Abs(got-25) > 1e-9 {
		t.Errorf("centre of all four cells = %g, want 25", got)
	}
}

func TestSampleAtPoints_OutOfCoverageIsNoData(t *testing.T) {
	s := gisio.NewSampler()
	surface := testSurface([]float64{10, 20, 30, 40})

	out, err := s.SampleAtPoints(context.Background(), pointsAt(orb.Point{100, 100}), surface, 1, "DTM", domain.ResamplingBilinear)
	if err != nil {
		t.Fatalf("coverage gap must not be an error, got: %v", err)
	}
	if got := out.Points[0].Attributes["DTM"]; got != surface.NoData {
		t.Errorf("out-of-coverage value = %g, want nodata sentinel %g", got, surface.NoData)
	}
}

func TestSampleAtPoints_NoDataNeighbourRenormalised(t *testing.T) {
	s := gisio.NewSampler()
	surface := testSurface([]float64{10, -9999, 30, 40})

	// Midway between (5,15)=10 and the nodata cell: only the valid
	// neighbour contributes.
	out, err := s.SampleAtPoints(context.Background(), pointsAt(orb.Point{10, 15}), surface, 1, "DTM", domain.ResamplingBilinear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Points[0].Attributes["DTM"]; math.Abs(got-10) > 1e-9 {
		t.Errorf("value next to nodata = %g, want 10", got)
	}
}

func TestSampleAtPoints_Nearest(t *testing.T) {
	s := gisio.NewSampler()
	surface := testSurface([]float64{10, 20, 30, 40})

	out, err := s.SampleAtPoints(context.Background(), pointsAt(orb.Point{12, 13}), surface, 1, "DTM", domain.ResamplingNearest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Points[0].Attributes["DTM"]; got != 20 {
		t.Errorf("nearest value = %g, want 20", got)
	}
}

func TestSampleAtPoints_BandOutOfRange(t *testing.T) {
	s := gisio.NewSampler()
	surface := testSurface([]float64{10, 20, 30, 40})

	_, err := s.SampleAtPoints(context.Background(), pointsAt(orb.Point{5, 15}), surface, 2, "DTM", domain.ResamplingBilinear)
	var rasterErr *domain.RasterSamplingError
	if !errors.As(err, &rasterErr) {
		t.Fatalf("expected RasterSamplingError, got %v", err)
	}
	if rasterErr.Raster != "dtm" || rasterErr.Band != 2 {
		t.Errorf("error names raster %q band %d, want dtm band 2", rasterErr.Raster, rasterErr.Band)
	}
}

func TestSampleAtPoints_InputUnmodified(t *testing.T) {
	s := gisio.NewSampler()
	surface := testSurface([]float64{10, 20, 30, 40})
	in := pointsAt(orb.Point{5, 15})

	if _, err := s.SampleAtPoints(context.Background(), in, surface, 1, "DTM", domain.ResamplingBilinear); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(in.Fields) != 0 || in.Points[0].Attributes != nil {
		t.Error("sampling modified the input dataset")
	}
}
