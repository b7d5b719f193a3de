package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// ExtractionInput is the input for the extraction workflow.
type ExtractionInput struct {
	Selection domain.RunSelection
	MultiBand bool
	OutputDir string
}

// ExtractionResult reports the completed run and where the exports landed.
type ExtractionResult struct {
	RunID     string
	OutputIDs []string
	Exported  []string
}

// runHandle is passed between activities once the pipeline has executed.
type runHandle struct {
	RunID     string
	OutputIDs []string
}

// ExtractionWorkflow orchestrates a corridor extraction run: execute the
// sampling pipeline against the workspace, then export the enriched point
// layers to files. If the export fails, the registered outputs are removed
// and the run is marked failed (saga compensation), so the workspace never
// advertises results that have no corresponding files.
func ExtractionWorkflow(ctx workflow.Context, input ExtractionInput) (*ExtractionResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting extraction workflow",
		"centerline", input.Selection.Centerline,
		"corridor", input.Selection.Corridor)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
			// Resolution and geometry failures are deterministic;
			// retries only help for storage and broker hiccups.
			NonRetryableErrorTypes: []string{"PipelineRejected"},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: run the pipeline and register outputs
	var handle runHandle
	err := workflow.ExecuteActivity(ctx, "ExecuteExtraction", input.Selection, input.MultiBand).Get(ctx, &handle)
	if err != nil {
		return nil, err
	}

	// Step 2: export each output layer to GeoJSON
	var exported []string
	err = workflow.ExecuteActivity(ctx, "ExportOutputs", handle, input.OutputDir).Get(ctx, &exported)
	if err != nil {
		logger.Warn("export failed, compensating", "error", err)
		// Compensate: remove the registered outputs and fail the run
		_ = workflow.ExecuteActivity(ctx, "DiscardOutputs", handle, err.Error()).Get(ctx, nil)
		return nil, err
	}

	logger.Info("Extraction completed", "run_id", handle.RunID, "exports", len(exported))
	return &ExtractionResult{
		RunID:     handle.RunID,
		OutputIDs: handle.OutputIDs,
		Exported:  exported,
	}, nil
}
