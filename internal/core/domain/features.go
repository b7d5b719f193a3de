package domain

import (
	"github.com/paulmach/orb"
)

// CRS identifies a coordinate reference system, e.g. "EPSG:25830".
// The pipeline never converts between systems; it adopts the centerline's
// CRS and requires every participating dataset to match it.
type CRS string

// SameAs reports whether two CRS identifiers refer to the same system.
// An empty CRS is treated as unspecified and matches anything.
func (c CRS) SameAs(other CRS) bool {
	if c == "" || other == "" {
		return true
	}
	return c == other
}

// LineFeatureSet is an ordered collection of polyline geometries.
type LineFeatureSet struct {
	CRS   CRS              `json:"crs"`
	Lines []orb.LineString `json:"lines"`
}

// Len returns the number of line features.
func (s *LineFeatureSet) Len() int { return len(s.Lines) }

// PolygonFeatureSet is an ordered collection of polygon features. Each
// feature is a multipolygon so operations like clipping can keep several
// surviving parts as one feature.
type PolygonFeatureSet struct {
	CRS      CRS                `json:"crs"`
	Polygons []orb.MultiPolygon `json:"polygons"`
}

// Len returns the number of polygon features.
func (s *PolygonFeatureSet) Len() int { return len(s.Polygons) }

// PointFeature is a single point geometry with its sampled attributes.
type PointFeature struct {
	Geometry   orb.Point          `json:"geometry"`
	Attributes map[string]float64 `json:"attributes,omitempty"`
}

// PointFeatureSet is an ordered collection of point features. Fields lists
// the attribute names in the order they were attached; every feature carries
// a value for every listed field once extraction has run.
type PointFeatureSet struct {
	CRS    CRS            `json:"crs"`
	Fields []string       `json:"fields,omitempty"`
	Points []PointFeature `json:"points"`
}

// Len returns the number of point features.
func (s *PointFeatureSet) Len() int { return len(s.Points) }

// WithField returns a copy of the set with an extra attribute column. The
// values slice must be aligned with Points; the receiver is not modified,
// so each extraction stage produces a fresh dataset.
func (s *PointFeatureSet) WithField(name string, values []float64) *PointFeatureSet {
	out := &PointFeatureSet{
		CRS:    s.CRS,
		Fields: make([]string, 0, len(s.Fields)+1),
		Points: make([]PointFeature, len(s.Points)),
	}
	out.Fields = append(out.Fields, s.Fields...)
	out.Fields = append(out.Fields, name)
	for i, p := range s.Points {
		attrs := make(map[string]float64, len(p.Attributes)+1)
		for k, v := range p.Attributes {
			attrs[k] = v
		}
		if i < len(values) {
			attrs[name] = values[i]
		}
		out.Points[i] = PointFeature{Geometry: p.Geometry, Attributes: attrs}
	}
	return out
}
