package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/ports"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/metrics"
)

// ExtractOutput is one enriched point dataset produced by the extractor.
type ExtractOutput struct {
	Name   string
	Points *domain.PointFeatureSet
}

// RunResult carries the terminal datasets and per-stage counts of a run.
type RunResult struct {
	Merged  *domain.PointFeatureSet
	Outputs []ExtractOutput
	Counts  domain.StageCounts
}

// PipelineService executes the sampling pipeline: corridor construction,
// line and grid sampling, deduplication, merging, and raster extraction.
// Stages run strictly in sequence; each stage materialises its output
// before the next starts, and any failure aborts the whole run.
type PipelineService struct {
	engine  ports.GeometryEngine
	sampler ports.RasterSampler
	tracer  trace.Tracer
}

// NewPipelineService creates a PipelineService.
func NewPipelineService(engine ports.GeometryEngine, sampler ports.RasterSampler) *PipelineService {
	return &PipelineService{
		engine:  engine,
		sampler: sampler,
		tracer:  otel.Tracer("pipeline"),
	}
}

// Run executes the whole pipeline over the resolved inputs.
func (s *PipelineService) Run(ctx context.Context, in *PipelineInputs, params domain.PipelineParams) (*RunResult, error) {
	if in == nil || in.Centerline == nil || in.Corridor == nil || in.Terrain == nil || in.Surface == nil {
		return nil, fmt.Errorf("pipeline: incomplete inputs")
	}
	crs := in.Centerline.CRS
	result := &RunResult{}

	// Corridor construction: buffer the centerline, take the buffer's
	// boundary as lines, and merge those lines with the centerline into
	// one combined network.
	var network *domain.LineFeatureSet
	var buffered *domain.PolygonFeatureSet
	err := s.stage(ctx, "corridor", func(ctx context.Context) error {
		var err error
		buffered, err = s.engine.Buffer(ctx, in.Centerline, params.BufferParams())
		if err != nil {
			return &domain.GeometryOperationError{Stage: "buffer", Err: err}
		}
		if buffered.Len() == 0 {
			return &domain.GeometryOperationError{Stage: "buffer", Err: fmt.Errorf("empty result")}
		}
		boundary, err := s.engine.PolygonBoundaryToLines(ctx, buffered)
		if err != nil {
			return &domain.GeometryOperationError{Stage: "polygons_to_lines", Err: err}
		}
		network, err = s.engine.MergeLineLayers(ctx, []*domain.LineFeatureSet{boundary, in.Centerline}, crs)
		if err != nil {
			return &domain.GeometryOperationError{Stage: "merge_lines", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Line sampling: a point every interval along the combined network.
	var linePoints *domain.PointFeatureSet
	err = s.stage(ctx, "points_along_lines", func(ctx context.Context) error {
		var err error
		linePoints, err = s.engine.PointsAlongLines(ctx, network, params.SampleInterval, params.StartOffset, params.EndOffset)
		if err != nil {
			return &domain.GeometryOperationError{Stage: "points_along_lines", Err: err}
		}
		if linePoints.Len() == 0 {
			return &domain.GeometryOperationError{Stage: "points_along_lines", Err: fmt.Errorf("empty result")}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Counts.LinePoints = linePoints.Len()
	metrics.StagePoints.WithLabelValues("points_along_lines").Add(float64(linePoints.Len()))

	// Grid sampling: tile the corridor extent, clip cells to the corridor
	// polygon, take centroids of the surviving cells, and clip those back
	// to the corridor.
	var centroids *domain.PointFeatureSet
	err = s.stage(ctx, "grid", func(ctx context.Context) error {
		extent := corridorBound(in.Corridor)
		grid, err := s.engine.CreateGrid(ctx, extent, params.GridSpacing, params.GridSpacing, crs)
		if err != nil {
			return &domain.GeometryOperationError{Stage: "create_grid", Err: err}
		}
		clipped, err := s.engine.ClipPolygons(ctx, grid, in.Corridor)
		if err != nil {
			return &domain.GeometryOperationError{Stage: "clip_grid", Err: err}
		}
		result.Counts.GridCells = clipped.Len()
		cellCentroids, err := s.engine.Centroids(ctx, clipped, false)
		if err != nil {
			return &domain.GeometryOperationError{Stage: "centroids", Err: err}
		}
		centroids, err = s.engine.ClipPoints(ctx, cellCentroids, in.Corridor)
		if err != nil {
			return &domain.GeometryOperationError{Stage: "clip_centroids", Err: err}
		}
		result.Counts.Centroids = centroids.Len()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deduplication: drop centroids that intersect the computed buffer
	// corridor, whose edge region the line sampler already covers. A pure
	// filter with a negated intersects predicate; no selection state
	// survives the stage.
	var remaining *domain.PointFeatureSet
	err = s.stage(ctx, "deduplicate", func(ctx context.Context) error {
		var err error
		remaining, err = s.engine.FilterByPredicate(ctx, centroids, buffered, true)
		if err != nil {
			return &domain.GeometryOperationError{Stage: "deduplicate", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Counts.Remaining = remaining.Len()
	metrics.StagePoints.WithLabelValues("deduplicate").Add(float64(remaining.Len()))

	// Merge: line points plus surviving centroids, order preserved,
	// coincident duplicates kept.
	var merged *domain.PointFeatureSet
	err = s.stage(ctx, "merge_points", func(ctx context.Context) error {
		var err error
		merged, err = s.engine.MergePointLayers(ctx, []*domain.PointFeatureSet{linePoints, remaining}, linePoints.CRS)
		if err != nil {
			return &domain.GeometryOperationError{Stage: "merge_points", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Counts.Merged = merged.Len()
	result.Merged = merged

	// Extraction: raster values onto the merged points, terrain first.
	err = s.stage(ctx, "extract", func(ctx context.Context) error {
		outputs, err := s.extract(ctx, merged, in.Terrain, in.Surface, params.MultiBand)
		if err != nil {
			return err
		}
		result.Outputs = outputs
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// stage runs one pipeline stage under a span and duration metric.
func (s *PipelineService) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

// corridorBound returns the bounding extent of the corridor polygons.
func corridorBound(corridor *domain.PolygonFeatureSet) (bound orb.Bound) {
	for i, poly := range corridor.Polygons {
		b := poly.Bound()
		if i == 0 {
			bound = b
			continue
		}
		bound = bound.Union(b)
	}
	return bound
}
