package domain

import (
	"github.com/paulmach/orb"
)

// DefaultNoData is the sentinel recorded for samples outside a raster's
// coverage when the source declares no nodata value of its own.
const DefaultNoData = -9999.0

// RasterBand is one scalar layer of a raster, stored row-major with the
// top (northernmost) row first.
type RasterBand struct {
	Values []float64
}

// RasterSurface is a 2D sampled grid with one or more bands and a simple
// north-up geotransform: square cells, no rotation.
type RasterSurface struct {
	Name     string
	CRS      CRS
	Cols     int
	Rows     int
	OriginX  float64 // west edge of the westernmost column
	OriginY  float64 // north edge of the northernmost row
	CellSize float64
	NoData   float64
	Bands    []RasterBand
}

// BandCount returns the number of bands.
func (r *RasterSurface) BandCount() int { return len(r.Bands) }

// Bounds returns the surface's coverage extent in world coordinates.
func (r *RasterSurface) Bounds() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.OriginX, r.OriginY - float64(r.Rows)*r.CellSize},
		Max: orb.Point{r.OriginX + float64(r.Cols)*r.CellSize, r.OriginY},
	}
}

// At returns the cell value of the given band at (col, row), or the nodata
// sentinel when the index is outside the grid. Band indices start at 1.
func (r *RasterSurface) At(band, col, row int) float64 {
	if band < 1 || band > len(r.Bands) {
		return r.NoData
	}
	if col < 0 || col >= r.Cols || row < 0 || row >= r.Rows {
		return r.NoData
	}
	return r.Bands[band-1].Values[row*r.Cols+col]
}
