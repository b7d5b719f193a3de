package usecases

import (
	"context"
	"fmt"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/ports"
)

// Prompt titles shown when the operator designates the input layers. The
// order matches the original tool: centerline, buffer, DSM, then DTM.
const (
	PromptCenterline    = "Select the Centerline Layer"
	PromptCorridor      = "Select the Buffer Layer"
	PromptSurfaceRaster = "Select the DSM Raster Layer"
	PromptTerrainRaster = "Select the DTM Raster Layer"
)

// PipelineInputs are the four materialised datasets a run needs.
type PipelineInputs struct {
	Centerline *domain.LineFeatureSet
	Corridor   *domain.PolygonFeatureSet
	Terrain    *domain.RasterSurface // DTM
	Surface    *domain.RasterSurface // DSM
}

// InputResolver obtains the four input datasets either from the workspace
// registry (operator picks among loaded layers) or from file paths.
type InputResolver struct {
	workspace ports.WorkspaceRepository
	picker    ports.LayerPicker
	vectors   ports.VectorReader
	rasters   ports.RasterReader
}

// NewInputResolver creates an InputResolver.
func NewInputResolver(workspace ports.WorkspaceRepository, picker ports.LayerPicker, vectors ports.VectorReader, rasters ports.RasterReader) *InputResolver {
	return &InputResolver{workspace: workspace, picker: picker, vectors: vectors, rasters: rasters}
}

// ResolveFromWorkspace partitions the registered datasets into vector and
// raster layers, verifies that at least two of each exist before any prompt
// is shown, and then asks the operator to designate each role. A cancelled
// prompt aborts with ErrSelectionCancelled and no side effects.
func (r *InputResolver) ResolveFromWorkspace(ctx context.Context) (*PipelineInputs, error) {
	datasets, err := r.workspace.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspace: %w", err)
	}

	var vectorNames, rasterNames []string
	byName := make(map[string]domain.Dataset, len(datasets))
	for _, ds := range datasets {
		byName[ds.Name] = ds
		switch ds.Kind {
		case domain.DatasetVector:
			vectorNames = append(vectorNames, ds.Name)
		case domain.DatasetRaster:
			rasterNames = append(rasterNames, ds.Name)
		}
	}
	if len(vectorNames) < 2 || len(rasterNames) < 2 {
		return nil, domain.ErrInsufficientInputs
	}

	centerline, err := r.pick(ctx, PromptCenterline, vectorNames)
	if err != nil {
		return nil, err
	}
	corridor, err := r.pick(ctx, PromptCorridor, vectorNames)
	if err != nil {
		return nil, err
	}
	surface, err := r.pick(ctx, PromptSurfaceRaster, rasterNames)
	if err != nil {
		return nil, err
	}
	terrain, err := r.pick(ctx, PromptTerrainRaster, rasterNames)
	if err != nil {
		return nil, err
	}

	return r.assemble(ctx, byName[centerline], byName[corridor], byName[terrain], byName[surface])
}

// ResolveFromFiles loads the four datasets directly from paths. Nothing is
// registered into the workspace; registration only happens after a
// successful run.
func (r *InputResolver) ResolveFromFiles(ctx context.Context, centerlinePath, corridorPath, terrainPath, surfacePath string) (*PipelineInputs, error) {
	centerline, err := r.vectors.LoadVector(ctx, centerlinePath)
	if err != nil {
		return nil, err
	}
	corridor, err := r.vectors.LoadVector(ctx, corridorPath)
	if err != nil {
		return nil, err
	}
	terrain, err := r.rasters.LoadRaster(ctx, terrainPath)
	if err != nil {
		return nil, err
	}
	surface, err := r.rasters.LoadRaster(ctx, surfacePath)
	if err != nil {
		return nil, err
	}
	return r.assemble(ctx, *centerline, *corridor, *terrain, *surface)
}

func (r *InputResolver) pick(ctx context.Context, title string, candidates []string) (string, error) {
	name, ok, err := r.picker.PickLayer(ctx, title, candidates)
	if err != nil {
		return "", fmt.Errorf("%s: %w", title, err)
	}
	if !ok || name == "" {
		return "", domain.ErrSelectionCancelled
	}
	found := false
	for _, c := range candidates {
		if c == name {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("layer %q is not a candidate for %q", name, title)
	}
	return name, nil
}

// assemble validates geometry types and CRS agreement and materialises
// raster payloads that were registered by path only.
func (r *InputResolver) assemble(ctx context.Context, centerline, corridor, terrain, surface domain.Dataset) (*PipelineInputs, error) {
	if centerline.Lines == nil || centerline.Lines.Len() == 0 {
		return nil, fmt.Errorf("layer %q carries no line geometry", centerline.Name)
	}
	if corridor.Polygons == nil || corridor.Polygons.Len() == 0 {
		return nil, fmt.Errorf("layer %q carries no polygon geometry", corridor.Name)
	}

	terrainSurface, err := r.materialize(ctx, terrain)
	if err != nil {
		return nil, err
	}
	surfaceSurface, err := r.materialize(ctx, surface)
	if err != nil {
		return nil, err
	}

	crs := centerline.Lines.CRS
	for name, other := range map[string]domain.CRS{
		corridor.Name: corridor.Polygons.CRS,
		terrain.Name:  terrainSurface.CRS,
		surface.Name:  surfaceSurface.CRS,
	} {
		if !other.SameAs(crs) {
			return nil, fmt.Errorf("layer %q CRS %q does not match centerline CRS %q", name, other, crs)
		}
	}

	return &PipelineInputs{
		Centerline: centerline.Lines,
		Corridor:   corridor.Polygons,
		Terrain:    terrainSurface,
		Surface:    surfaceSurface,
	}, nil
}

func (r *InputResolver) materialize(ctx context.Context, ds domain.Dataset) (*domain.RasterSurface, error) {
	if ds.Raster != nil {
		return ds.Raster, nil
	}
	if ds.SourcePath == "" {
		return nil, fmt.Errorf("raster layer %q has no payload and no source path", ds.Name)
	}
	loaded, err := r.rasters.LoadRaster(ctx, ds.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("materialise raster %q: %w", ds.Name, err)
	}
	loaded.Raster.Name = ds.Name
	return loaded.Raster, nil
}

// NamedPicker satisfies LayerPicker from a fixed, non-interactive
// selection. An empty name for a requested role is the non-interactive
// analogue of a cancelled prompt.
type NamedPicker struct {
	Selection domain.RunSelection
}

// PickLayer answers a prompt from the fixed selection.
func (p NamedPicker) PickLayer(ctx context.Context, title string, candidates []string) (string, bool, error) {
	var name string
	switch title {
	case PromptCenterline:
		name = p.Selection.Centerline
	case PromptCorridor:
		name = p.Selection.Corridor
	case PromptTerrainRaster:
		name = p.Selection.Terrain
	case PromptSurfaceRaster:
		name = p.Selection.Surface
	default:
		return "", false, fmt.Errorf("unknown prompt %q", title)
	}
	if name == "" {
		return "", false, nil
	}
	return name, true, nil
}
