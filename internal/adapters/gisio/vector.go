// Package gisio loads and stores the file formats the pipeline exchanges:
// GeoJSON for vector layers and ESRI ASCII grids for raster surfaces. It
// also provides the bilinear point sampler over loaded surfaces.
package gisio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// VectorStore reads and writes GeoJSON vector datasets. GeoJSON itself
// carries no CRS; loaded layers get DefaultCRS, which must be the projected
// system the rasters use.
type VectorStore struct {
	DefaultCRS domain.CRS
}

// NewVectorStore returns a store assigning crs to loaded layers.
func NewVectorStore(crs domain.CRS) *VectorStore {
	return &VectorStore{DefaultCRS: crs}
}

// LoadVector reads a GeoJSON feature collection and classifies it into a
// line, polygon, or point dataset by its first geometry type.
func (s *VectorStore) LoadVector(ctx context.Context, path string) (*domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load vector %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("load vector %s: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("load vector %s: no features", path)
	}

	ds := &domain.Dataset{
		ID:         uuid.NewString(),
		Name:       layerName(path),
		Kind:       domain.DatasetVector,
		CRS:        s.DefaultCRS,
		SourcePath: path,
		CreatedAt:  time.Now().UTC(),
	}

	lines := &domain.LineFeatureSet{CRS: s.DefaultCRS}
	polys := &domain.PolygonFeatureSet{CRS: s.DefaultCRS}
	points := &domain.PointFeatureSet{CRS: s.DefaultCRS}
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.LineString:
			lines.Lines = append(lines.Lines, g)
		case orb.MultiLineString:
			lines.Lines = append(lines.Lines, g...)
		case orb.Polygon:
			polys.Polygons = append(polys.Polygons, orb.MultiPolygon{g})
		case orb.MultiPolygon:
			polys.Polygons = append(polys.Polygons, g)
		case orb.Point:
			points.Points = append(points.Points, domain.PointFeature{Geometry: g})
		case orb.MultiPoint:
			for _, p := range g {
				points.Points = append(points.Points, domain.PointFeature{Geometry: p})
			}
		default:
			return nil, fmt.Errorf("load vector %s: unsupported geometry %T", path, g)
		}
	}

	switch {
	case lines.Len() > 0:
		ds.Lines = lines
	case polys.Len() > 0:
		ds.Polygons = polys
	case points.Len() > 0:
		ds.Points = points
	}
	return ds, nil
}

// WritePoints stores an enriched point dataset as a GeoJSON feature
// collection, one property per attached attribute.
func (s *VectorStore) WritePoints(ctx context.Context, path string, points *domain.PointFeatureSet) error {
	data, err := MarshalPoints(points)
	if err != nil {
		return fmt.Errorf("write points %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write points %s: %w", path, err)
	}
	return nil
}

// MarshalPoints encodes a point dataset as GeoJSON.
func MarshalPoints(points *domain.PointFeatureSet) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, p := range points.Points {
		f := geojson.NewFeature(p.Geometry)
		for _, name := range points.Fields {
			if v, ok := p.Attributes[name]; ok {
				f.Properties[name] = v
			}
		}
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

// UnmarshalPoints decodes a GeoJSON feature collection into a point dataset
// with the given CRS and attribute field order.
func UnmarshalPoints(data []byte, crs domain.CRS, fields []string) (*domain.PointFeatureSet, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	out := &domain.PointFeatureSet{CRS: crs, Fields: fields}
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("expected point geometry, got %T", f.Geometry)
		}
		feat := domain.PointFeature{Geometry: pt}
		if len(f.Properties) > 0 {
			feat.Attributes = make(map[string]float64, len(f.Properties))
			for k, v := range f.Properties {
				if fv, ok := toFloat(v); ok {
					feat.Attributes[k] = fv
				}
			}
		}
		out.Points = append(out.Points, feat)
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func layerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
