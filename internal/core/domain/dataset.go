package domain

import (
	"time"
)

// DatasetKind partitions workspace datasets the way the input resolver
// needs them: vector layers vs raster surfaces.
type DatasetKind string

const (
	DatasetVector DatasetKind = "vector"
	DatasetRaster DatasetKind = "raster"
)

// Dataset is one entry in the workspace registry. Exactly one of the
// payload pointers is set depending on Kind and geometry type; raster
// payloads are materialised lazily from SourcePath.
type Dataset struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Kind       DatasetKind `json:"kind"`
	CRS        CRS         `json:"crs"`
	SourcePath string      `json:"source_path,omitempty"`

	Lines    *LineFeatureSet    `json:"-"`
	Polygons *PolygonFeatureSet `json:"-"`
	Points   *PointFeatureSet   `json:"-"`
	Raster   *RasterSurface     `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// RunStatus tracks a pipeline run's lifecycle.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// StageCounts records per-stage feature counts for a run. Merged is always
// LinePoints + Remaining: the merger never drops or deduplicates.
type StageCounts struct {
	LinePoints int `json:"line_points"`
	GridCells  int `json:"grid_cells"`
	Centroids  int `json:"centroids"`
	Remaining  int `json:"remaining"`
	Merged     int `json:"merged"`
}

// RunSelection names the four input layers of a run.
type RunSelection struct {
	Centerline string `json:"centerline"`
	Corridor   string `json:"corridor"`
	Terrain    string `json:"terrain"` // DTM
	Surface    string `json:"surface"` // DSM
}

// Run is the persisted record of one pipeline invocation.
type Run struct {
	ID          string         `json:"id"`
	Status      RunStatus      `json:"status"`
	Selection   RunSelection   `json:"selection"`
	Params      PipelineParams `json:"params"`
	Counts      StageCounts    `json:"counts"`
	OutputIDs   []string       `json:"output_ids,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}
