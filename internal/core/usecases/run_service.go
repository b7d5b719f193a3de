package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/ports"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/metrics"
)

// RunService executes and records pipeline runs submitted with a named
// layer selection. Output datasets are registered only after the whole
// pipeline has succeeded; a failure mid-registration unregisters what was
// already written so no partial result stays in the workspace.
type RunService struct {
	workspace *WorkspaceService
	repo      ports.WorkspaceRepository
	pipeline  *PipelineService
	runs      ports.RunRepository
	events    ports.EventPublisher
	rasters   ports.RasterReader
}

// NewRunService creates a RunService.
func NewRunService(workspace *WorkspaceService, repo ports.WorkspaceRepository, pipeline *PipelineService, runs ports.RunRepository, events ports.EventPublisher, rasters ports.RasterReader) *RunService {
	return &RunService{
		workspace: workspace,
		repo:      repo,
		pipeline:  pipeline,
		runs:      runs,
		events:    events,
		rasters:   rasters,
	}
}

// Submit resolves the named layers, runs the pipeline synchronously, and
// registers the enriched outputs. The returned run record reflects the
// final state; err carries the failure when Status is failed.
func (s *RunService) Submit(ctx context.Context, selection domain.RunSelection, params domain.PipelineParams) (*domain.Run, error) {
	run := &domain.Run{
		ID:        uuid.NewString(),
		Status:    domain.RunRunning,
		Selection: selection,
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run record: %w", err)
	}
	if s.events != nil {
		_ = s.events.PublishRunStarted(ctx, run)
	}

	resolver := NewInputResolver(s.repo, NamedPicker{Selection: selection}, nil, s.rasters)
	inputs, err := resolver.ResolveFromWorkspace(ctx)
	if err != nil {
		return s.fail(ctx, run, err)
	}

	result, err := s.pipeline.Run(ctx, inputs, params)
	if err != nil {
		return s.fail(ctx, run, err)
	}

	var registered []string
	for _, out := range result.Outputs {
		ds := &domain.Dataset{
			ID:        uuid.NewString(),
			Name:      out.Name,
			Kind:      domain.DatasetVector,
			CRS:       out.Points.CRS,
			Points:    out.Points,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.workspace.RegisterOutput(ctx, ds); err != nil {
			for _, id := range registered {
				_ = s.workspace.Unregister(ctx, id)
			}
			return s.fail(ctx, run, err)
		}
		registered = append(registered, ds.ID)
	}

	now := time.Now().UTC()
	run.Status = domain.RunCompleted
	run.Counts = result.Counts
	run.OutputIDs = registered
	run.CompletedAt = &now
	if err := s.runs.Update(ctx, run); err != nil {
		return nil, fmt.Errorf("update run record: %w", err)
	}
	metrics.RunsTotal.WithLabelValues("completed").Inc()
	if s.events != nil {
		_ = s.events.PublishRunCompleted(ctx, run)
	}
	return run, nil
}

// Get returns a run record by ID.
func (s *RunService) Get(ctx context.Context, id string) (*domain.Run, error) {
	if id == "" {
		return nil, fmt.Errorf("run id is required")
	}
	return s.runs.GetByID(ctx, id)
}

// List returns the most recent runs.
func (s *RunService) List(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.runs.List(ctx, limit)
}

func (s *RunService) fail(ctx context.Context, run *domain.Run, cause error) (*domain.Run, error) {
	now := time.Now().UTC()
	run.Status = domain.RunFailed
	run.Error = FailureMessage(cause)
	run.CompletedAt = &now
	_ = s.runs.Update(ctx, run)
	metrics.RunsTotal.WithLabelValues("failed").Inc()
	if s.events != nil {
		_ = s.events.PublishRunFailed(ctx, run)
	}
	return run, cause
}

// FailureMessage maps an error to the single operator-facing message of
// its failure category.
func FailureMessage(err error) string {
	var geomErr *domain.GeometryOperationError
	var rasterErr *domain.RasterSamplingError
	switch {
	case errors.Is(err, domain.ErrInsufficientInputs):
		return "Not enough layers available in the workspace"
	case errors.Is(err, domain.ErrSelectionCancelled):
		return "Layer selection was cancelled"
	case errors.As(err, &geomErr):
		return fmt.Sprintf("Geometry processing failed during %s", geomErr.Stage)
	case errors.As(err, &rasterErr):
		return fmt.Sprintf("Raster sampling failed for %s", rasterErr.Raster)
	default:
		return err.Error()
	}
}
