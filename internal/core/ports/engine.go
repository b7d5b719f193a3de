package ports

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// GeometryEngine provides the geometric operations the pipeline consumes.
// Implementations must preserve input feature order and never mutate their
// inputs; every operation materialises a new feature set.
type GeometryEngine interface {
	// Buffer offsets every line by the given distance into one polygon per
	// input feature (no dissolve unless requested).
	Buffer(ctx context.Context, in *domain.LineFeatureSet, p domain.BufferParams) (*domain.PolygonFeatureSet, error)

	// PolygonBoundaryToLines converts every polygon ring into a closed line.
	PolygonBoundaryToLines(ctx context.Context, in *domain.PolygonFeatureSet) (*domain.LineFeatureSet, error)

	// MergeLineLayers concatenates line layers into one set with the given CRS.
	MergeLineLayers(ctx context.Context, layers []*domain.LineFeatureSet, crs domain.CRS) (*domain.LineFeatureSet, error)

	// MergePointLayers concatenates point layers into one set with the given
	// CRS. Coincident points are preserved as distinct features.
	MergePointLayers(ctx context.Context, layers []*domain.PointFeatureSet, crs domain.CRS) (*domain.PointFeatureSet, error)

	// PointsAlongLines walks every line from start to end placing a point at
	// each interval position. A line shorter than the interval still yields
	// its start point.
	PointsAlongLines(ctx context.Context, in *domain.LineFeatureSet, distance, startOffset, endOffset float64) (*domain.PointFeatureSet, error)

	// CreateGrid tiles the extent with rectangle polygons at the given
	// spacing and zero overlap.
	CreateGrid(ctx context.Context, extent orb.Bound, hSpacing, vSpacing float64, crs domain.CRS) (*domain.PolygonFeatureSet, error)

	// ClipPolygons truncates every input polygon to the overlay. Features
	// falling entirely outside the overlay are dropped.
	ClipPolygons(ctx context.Context, in, overlay *domain.PolygonFeatureSet) (*domain.PolygonFeatureSet, error)

	// ClipPoints keeps the points lying inside the overlay.
	ClipPoints(ctx context.Context, in *domain.PointFeatureSet, overlay *domain.PolygonFeatureSet) (*domain.PointFeatureSet, error)

	// Centroids returns one centroid per polygon feature. A truncated cell's
	// centroid may fall outside the clipping area.
	Centroids(ctx context.Context, in *domain.PolygonFeatureSet, allParts bool) (*domain.PointFeatureSet, error)

	// FilterByPredicate materialises the subset of points whose "intersects"
	// relation with the overlay matches (or, with negate, does not match).
	// This replaces mutable selection state with a pure function.
	FilterByPredicate(ctx context.Context, in *domain.PointFeatureSet, overlay *domain.PolygonFeatureSet, negate bool) (*domain.PointFeatureSet, error)
}

// RasterSampler reads raster values at point locations.
type RasterSampler interface {
	// SampleAtPoints samples one band of the raster at every point and
	// returns a new set carrying the values under fieldName. Points outside
	// the raster's coverage receive the surface's nodata sentinel.
	SampleAtPoints(ctx context.Context, points *domain.PointFeatureSet, raster *domain.RasterSurface, band int, fieldName string, method domain.Resampling) (*domain.PointFeatureSet, error)
}

// VectorReader loads vector datasets from files.
type VectorReader interface {
	LoadVector(ctx context.Context, path string) (*domain.Dataset, error)
}

// RasterReader loads raster surfaces from files.
type RasterReader interface {
	LoadRaster(ctx context.Context, path string) (*domain.Dataset, error)
}

// VectorWriter persists an enriched point dataset to a file.
type VectorWriter interface {
	WritePoints(ctx context.Context, path string, points *domain.PointFeatureSet) error
}
