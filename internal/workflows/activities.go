package workflows

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/ports"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/usecases"
)

// ExtractionActivities holds the activity implementations for the
// extraction workflow.
type ExtractionActivities struct {
	Runs      *usecases.RunService
	Workspace *usecases.WorkspaceService
	RunRepo   ports.RunRepository
	Writer    ports.VectorWriter
	Params    domain.PipelineParams
}

// ExecuteExtraction resolves the selection, runs the sampling pipeline, and
// registers the enriched outputs. Input and geometry failures are flagged
// non-retryable; retrying cannot fix a cancelled selection or a degenerate
// corridor.
func (a *ExtractionActivities) ExecuteExtraction(ctx context.Context, selection domain.RunSelection, multiBand bool) (runHandle, error) {
	params := a.Params
	params.MultiBand = multiBand

	run, err := a.Runs.Submit(ctx, selection, params)
	if err != nil {
		if isDeterministic(err) {
			return runHandle{}, temporal.NewNonRetryableApplicationError(
				usecases.FailureMessage(err), "PipelineRejected", err)
		}
		return runHandle{}, err
	}
	return runHandle{RunID: run.ID, OutputIDs: run.OutputIDs}, nil
}

// ExportOutputs writes each registered output layer to a GeoJSON file under
// dir and returns the written paths.
func (a *ExtractionActivities) ExportOutputs(ctx context.Context, handle runHandle, dir string) ([]string, error) {
	var paths []string
	for _, id := range handle.OutputIDs {
		ds, err := a.Workspace.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load output %s: %w", id, err)
		}
		if ds.Points == nil {
			continue
		}
		path := filepath.Join(dir, ds.Name+".geojson")
		if err := a.Writer.WritePoints(ctx, path, ds.Points); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// DiscardOutputs removes the registered outputs and marks the run failed
// (saga compensation for a failed export).
func (a *ExtractionActivities) DiscardOutputs(ctx context.Context, handle runHandle, reason string) error {
	for _, id := range handle.OutputIDs {
		if err := a.Workspace.Unregister(ctx, id); err != nil {
			log.Printf("discard output %s: %v", id, err)
		}
	}

	run, err := a.RunRepo.GetByID(ctx, handle.RunID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", handle.RunID, err)
	}
	now := time.Now().UTC()
	run.Status = domain.RunFailed
	run.Error = "Export failed: " + reason
	run.OutputIDs = nil
	run.CompletedAt = &now
	if err := a.RunRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("mark run failed: %w", err)
	}
	log.Printf("Run %s outputs discarded (saga compensation)", handle.RunID)
	return nil
}

// isDeterministic reports whether the failure belongs to the pipeline's
// error taxonomy, i.e. retrying with the same inputs cannot succeed.
func isDeterministic(err error) bool {
	var geomErr *domain.GeometryOperationError
	var rasterErr *domain.RasterSamplingError
	return errors.Is(err, domain.ErrInsufficientInputs) ||
		errors.Is(err, domain.ErrSelectionCancelled) ||
		errors.As(err, &geomErr) ||
		errors.As(err, &rasterErr)
}
