package usecases

import (
	"context"
	"fmt"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/metrics"
)

// Raster roles in extraction order: terrain values are fully applied
// before surface values begin.
const (
	RoleTerrain = "DTM"
	RoleSurface = "DSM"
)

// extract attaches raster values to the merged points.
//
// Single-band mode samples band 1 of each raster, chaining the surface
// extraction onto the terrain output so the second dataset carries both
// attributes; it yields one dataset per raster, named after the role.
//
// Multi-band mode folds over every band of both rasters, each sampling
// starting from the previous band's enriched output, and yields one
// terminal dataset whose attributes are named "<Role>_Band_<index>".
func (s *PipelineService) extract(ctx context.Context, merged *domain.PointFeatureSet, terrain, surface *domain.RasterSurface, multiBand bool) ([]ExtractOutput, error) {
	if !multiBand {
		withTerrain, err := s.sampleBand(ctx, merged, terrain, 1, RoleTerrain, RoleTerrain)
		if err != nil {
			return nil, err
		}
		withSurface, err := s.sampleBand(ctx, withTerrain, surface, 1, RoleSurface, RoleSurface)
		if err != nil {
			return nil, err
		}
		return []ExtractOutput{
			{Name: RoleTerrain, Points: withTerrain},
			{Name: RoleSurface, Points: withSurface},
		}, nil
	}

	current := merged
	for _, src := range []struct {
		role    string
		surface *domain.RasterSurface
	}{
		{RoleTerrain, terrain},
		{RoleSurface, surface},
	} {
		for band := 1; band <= src.surface.BandCount(); band++ {
			field := fmt.Sprintf("%s_Band_%d", src.role, band)
			next, err := s.sampleBand(ctx, current, src.surface, band, field, src.role)
			if err != nil {
				return nil, err
			}
			current = next
		}
	}
	return []ExtractOutput{{Name: "extracted_points", Points: current}}, nil
}

// sampleBand samples one band at every point and records sample metrics.
func (s *PipelineService) sampleBand(ctx context.Context, points *domain.PointFeatureSet, raster *domain.RasterSurface, band int, field, role string) (*domain.PointFeatureSet, error) {
	out, err := s.sampler.SampleAtPoints(ctx, points, raster, band, field, domain.ResamplingBilinear)
	if err != nil {
		if _, ok := err.(*domain.RasterSamplingError); ok {
			return nil, err
		}
		return nil, &domain.RasterSamplingError{Raster: raster.Name, Band: band, Err: err}
	}
	nodata := 0
	for _, p := range out.Points {
		if p.Attributes[field] == raster.NoData {
			nodata++
		}
	}
	metrics.RasterSamples.WithLabelValues(role).Add(float64(out.Len()))
	if nodata > 0 {
		metrics.NoDataSamples.WithLabelValues(role).Add(float64(nodata))
	}
	return out, nil
}
