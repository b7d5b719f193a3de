package gisio

import (
	"context"
	"fmt"
	"math"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// Sampler reads raster values at point locations, implementing the
// pipeline's RasterSampler port.
type Sampler struct{}

// NewSampler returns a Sampler.
func NewSampler() *Sampler { return &Sampler{} }

// SampleAtPoints samples one band at every point and returns a new dataset
// carrying the values under fieldName. The input is never modified. Points
// outside the raster's coverage (and points whose every neighbouring cell
// is nodata) receive the surface's nodata sentinel; coverage gaps are data,
// not errors.
func (s *Sampler) SampleAtPoints(ctx context.Context, points *domain.PointFeatureSet, raster *domain.RasterSurface, band int, fieldName string, method domain.Resampling) (*domain.PointFeatureSet, error) {
	if band < 1 || band > raster.BandCount() {
		return nil, &domain.RasterSamplingError{
			Raster: raster.Name,
			Band:   band,
			Err:    fmt.Errorf("band out of range 1..%d", raster.BandCount()),
		}
	}
	values := make([]float64, len(points.Points))
	for i, p := range points.Points {
		switch method {
		case domain.ResamplingBilinear:
			values[i] = bilinear(raster, band, p.Geometry[0], p.Geometry[1])
		default:
			values[i] = nearest(raster, band, p.Geometry[0], p.Geometry[1])
		}
	}
	return points.WithField(fieldName, values), nil
}

// nearest reads the cell containing (x, y).
func nearest(r *domain.RasterSurface, band int, x, y float64) float64 {
	col := int(math.Floor((x - r.OriginX) / r.CellSize))
	row := int(math.Floor((r.OriginY - y) / r.CellSize))
	return r.At(band, col, row)
}

// bilinear interpolates between the four cell centres around (x, y).
// Neighbours that are nodata or off-grid are excluded and the remaining
// weights renormalised; with no valid neighbour the result is nodata.
func bilinear(r *domain.RasterSurface, band int, x, y float64) float64 {
	// Fractional position in cell-centre space.
	fx := (x-r.OriginX)/r.CellSize - 0.5
	fy := (r.OriginY-y)/r.CellSize - 0.5
	c0 := int(math.Floor(fx))
	r0 := int(math.Floor(fy))
	tx := fx - float64(c0)
	ty := fy - float64(r0)

	weights := [4]float64{
		(1 - tx) * (1 - ty), // c0, r0
		tx * (1 - ty),       // c0+1, r0
		(1 - tx) * ty,       // c0, r0+1
		tx * ty,             // c0+1, r0+1
	}
	cells := [4][2]int{
		{c0, r0}, {c0 + 1, r0}, {c0, r0 + 1}, {c0 + 1, r0 + 1},
	}

	sum, wsum := 0.0, 0.0
	for i, cell := range cells {
		v := r.At(band, cell[0], cell[1])
		if v == r.NoData {
			continue
		}
		sum += v * weights[i]
		wsum += weights[i]
	}
	if wsum == 0 {
		return r.NoData
	}
	return sum / wsum
}
