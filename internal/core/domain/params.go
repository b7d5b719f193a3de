package domain

// Resampling selects the interpolation rule used when reading a raster at a
// non-grid-aligned coordinate.
type Resampling int

const (
	ResamplingNearest Resampling = iota
	ResamplingBilinear
)

// BufferParams mirrors the parameter tuple of the engine's buffer operation.
type BufferParams struct {
	Distance   float64
	Segments   int // curve approximation; unused by mitered joins but carried for the engine contract
	EndCapFlat bool
	JoinMiter  bool
	MiterLimit float64
	Dissolve   bool
}

// PipelineParams are the fixed pipeline constants. They come from
// configuration, never from per-run user input.
type PipelineParams struct {
	BufferDistance float64 `json:"buffer_distance"`
	Segments       int     `json:"segments"`
	MiterLimit     float64 `json:"miter_limit"`
	SampleInterval float64 `json:"sample_interval"`
	StartOffset    float64 `json:"start_offset"`
	EndOffset      float64 `json:"end_offset"`
	GridSpacing    float64 `json:"grid_spacing"`
	MultiBand      bool    `json:"multi_band"`
}

// DefaultParams returns the default configuration: 2 map unit corridor,
// 5 map unit sampling and grid spacing.
func DefaultParams() PipelineParams {
	return PipelineParams{
		BufferDistance: 2,
		Segments:       5,
		MiterLimit:     2,
		SampleInterval: 5,
		GridSpacing:    5,
	}
}

// BufferParams expands the pipeline constants into the buffer tuple used by
// the corridor builder: flat end caps, mitered joins, no dissolve.
func (p PipelineParams) BufferParams() BufferParams {
	return BufferParams{
		Distance:   p.BufferDistance,
		Segments:   p.Segments,
		EndCapFlat: true,
		JoinMiter:  true,
		MiterLimit: p.MiterLimit,
	}
}
