package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/geometry"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/gisio"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/usecases"
)

// --- In-memory repositories ---

type memWorkspaceRepo struct {
	datasets []domain.Dataset
}

func (m *memWorkspaceRepo) Register(ctx context.Context, ds *domain.Dataset) error {
	m.datasets = append(m.datasets, *ds)
	return nil
}

func (m *memWorkspaceRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	for i := range m.datasets {
		if m.datasets[i].ID == id {
			return &m.datasets[i], nil
		}
	}
	return nil, fmt.Errorf("dataset %s not found", id)
}

func (m *memWorkspaceRepo) GetByName(ctx context.Context, name string) (*domain.Dataset, error) {
	for i := range m.datasets {
		if m.datasets[i].Name == name {
			return &m.datasets[i], nil
		}
	}
	return nil, fmt.Errorf("dataset %s not found", name)
}

func (m *memWorkspaceRepo) List(ctx context.Context) ([]domain.Dataset, error) {
	return m.datasets, nil
}

func (m *memWorkspaceRepo) Delete(ctx context.Context, id string) error {
	for i := range m.datasets {
		if m.datasets[i].ID == id {
			m.datasets = append(m.datasets[:i], m.datasets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("dataset %s not found", id)
}

type memRunRepo struct {
	runs map[string]domain.Run
}

func newMemRunRepo() *memRunRepo {
	return &memRunRepo{runs: make(map[string]domain.Run)}
}

func (m *memRunRepo) Create(ctx context.Context, run *domain.Run) error {
	m.runs[run.ID] = *run
	return nil
}

func (m *memRunRepo) Update(ctx context.Context, run *domain.Run) error {
	if _, ok := m.runs[run.ID]; !ok {
		return fmt.Errorf("run %s not found", run.ID)
	}
	m.runs[run.ID] = *run
	return nil
}

func (m *memRunRepo) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return &run, nil
}

func (m *memRunRepo) List(ctx context.Context, limit int) ([]domain.Run, error) {
	out := make([]domain.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	return out, nil
}

type recordingPublisher struct {
	events []string
}

func (r *recordingPublisher) PublishRunStarted(ctx context.Context, run *domain.Run) error {
	r.events = append(r.events, "run.started")
	return nil
}

func (r *recordingPublisher) PublishRunCompleted(ctx context.Context, run *domain.Run) error {
	r.events = append(r.events, "run.completed")
	return nil
}

func (r *recordingPublisher) PublishRunFailed(ctx context.Context, run *domain.Run) error {
	r.events = append(r.events, "run.failed")
	return nil
}

func (r *recordingPublisher) PublishDatasetRegistered(ctx context.Context, ds *domain.Dataset) error {
	r.events = append(r.events, "dataset.registered")
	return nil
}

// --- Tests ---

func newRunService(repo *memWorkspaceRepo, runs *memRunRepo, events *recordingPublisher) *usecases.RunService {
	workspace := usecases.NewWorkspaceService(repo, nil, events, nil, nil)
	pipeline := usecases.NewPipelineService(geometry.New(), gisio.NewSampler())
	return usecases.NewRunService(workspace, repo, pipeline, runs, events, nil)
}

func fullSelection() domain.RunSelection {
	return domain.RunSelection{
		Centerline: "centerline",
		Corridor:   "corridor",
		Terrain:    "dtm",
		Surface:    "dsm",
	}
}

func workspaceWith(t *testing.T) *memWorkspaceRepo {
	t.Helper()
	repo := &memWorkspaceRepo{}
	for i, ds := range []domain.Dataset{
		vectorDataset("centerline", true),
		vectorDataset("corridor", false),
		{Name: "dtm", Kind: domain.DatasetRaster, Raster: wideSurface("dtm", 100, 1)},
		{Name: "dsm", Kind: domain.DatasetRaster, Raster: wideSurface("dsm", 200, 1)},
	} {
		ds.ID = fmt.Sprintf("fixture-%d", i)
		repo.datasets = append(repo.datasets, ds)
	}
	return repo
}

func TestRunService_SubmitCompletes(t *testing.T) {
	repo := workspaceWith(t)
	runs := newMemRunRepo()
	events := &recordingPublisher{}
	svc := newRunService(repo, runs, events)

	run, err := svc.Submit(context.Background(), fullSelection(), domain.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != domain.RunCompleted {
		t.Fatalf("status %q, want completed", run.Status)
	}
	if len(run.OutputIDs) != 2 {
		t.Fatalf("registered %d outputs, want 2", len(run.OutputIDs))
	}
	if run.CompletedAt == nil {
		t.Error("completed run has no completion time")
	}

	// Outputs must be retrievable from the workspace
	for _, id := range run.OutputIDs {
		ds, err := repo.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("output %s not registered: %v", id, err)
		}
		if ds.Points == nil || ds.Points.Len() != run.Counts.Merged {
			t.Errorf("output %s carries wrong point count", id)
		}
	}

	// The persisted record matches the returned one
	stored, err := runs.GetByID(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("run not persisted: %v", err)
	}
	if stored.Status != domain.RunCompleted {
		t.Errorf("persisted status %q, want completed", stored.Status)
	}

	wantEvents := []string{"run.started", "dataset.registered", "dataset.registered", "run.completed"}
	if len(events.events) != len(wantEvents) {
		t.Fatalf("events %v, want %v", events.events, wantEvents)
	}
	for i, want := range wantEvents {
		if events.events[i] != want {
			t.Errorf("event %d = %q, want %q", i, events.events[i], want)
		}
	}
}

func TestRunService_SubmitCancelledSelection(t *testing.T) {
	repo := workspaceWith(t)
	runs := newMemRunRepo()
	events := &recordingPublisher{}
	svc := newRunService(repo, runs, events)

	selection := fullSelection()
	selection.Surface = ""

	run, err := svc.Submit(context.Background(), selection, domain.DefaultParams())
	if !errors.Is(err, domain.ErrSelectionCancelled) {
		t.Fatalf("expected ErrSelectionCancelled, got %v", err)
	}
	if run.Status != domain.RunFailed {
		t.Fatalf("status %q, want failed", run.Status)
	}
	if run.Error != "Layer selection was cancelled" {
		t.Errorf("failure message %q", run.Error)
	}
	// No output ever registered
	if len(repo.datasets) != 4 {
		t.Errorf("workspace has %d datasets after a cancelled run, want the 4 fixtures", len(repo.datasets))
	}
}

func TestRunService_SubmitInsufficientWorkspace(t *testing.T) {
	repo := &memWorkspaceRepo{}
	repo.datasets = append(repo.datasets, vectorDataset("centerline", true))
	runs := newMemRunRepo()
	svc := newRunService(repo, runs, &recordingPublisher{})

	run, err := svc.Submit(context.Background(), fullSelection(), domain.DefaultParams())
	if !errors.Is(err, domain.ErrInsufficientInputs) {
		t.Fatalf("expected ErrInsufficientInputs, got %v", err)
	}
	if run.Error != "Not enough layers available in the workspace" {
		t.Errorf("failure message %q", run.Error)
	}
}

func TestRunService_RegistrationRollback(t *testing.T) {
	repo := workspaceWith(t)
	runs := newMemRunRepo()
	origLen := len(repo.datasets)

	// First registration succeeds, the second fails: the first output must
	// be unregistered again.
	wrapper := &failingSecondRegister{memWorkspaceRepo: repo}
	workspace := usecases.NewWorkspaceService(wrapper, nil, nil, nil, nil)
	pipeline := usecases.NewPipelineService(geometry.New(), gisio.NewSampler())
	svc := usecases.NewRunService(workspace, wrapper, pipeline, runs, nil, nil)

	run, err := svc.Submit(context.Background(), fullSelection(), domain.DefaultParams())
	if err == nil {
		t.Fatal("expected registration failure")
	}
	if run.Status != domain.RunFailed {
		t.Fatalf("status %q, want failed", run.Status)
	}
	if len(repo.datasets) != origLen {
		t.Errorf("workspace has %d datasets after rollback, want %d", len(repo.datasets), origLen)
	}
}

// failingSecondRegister fails the second Register call.
type failingSecondRegister struct {
	*memWorkspaceRepo
	calls int
}

func (f *failingSecondRegister) Register(ctx context.Context, ds *domain.Dataset) error {
	f.calls++
	if f.calls == 2 {
		return errors.New("registry unavailable")
	}
	return f.memWorkspaceRepo.Register(ctx, ds)
}

func TestFailureMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{domain.ErrInsufficientInputs, "Not enough layers available in the workspace"},
		{domain.ErrSelectionCancelled, "Layer selection was cancelled"},
		{&domain.GeometryOperationError{Stage: "buffer", Err: errors.New("empty result")}, "Geometry processing failed during buffer"},
		{&domain.RasterSamplingError{Raster: "dtm", Band: 1, Err: errors.New("band out of range")}, "Raster sampling failed for dtm"},
		{fmt.Errorf("wrapped: %w", domain.ErrSelectionCancelled), "Layer selection was cancelled"},
	}
	for _, tc := range cases {
		if got := usecases.FailureMessage(tc.err); got != tc.want {
			t.Errorf("FailureMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
