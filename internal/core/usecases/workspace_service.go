package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/ports"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/metrics"
)

const layerListCacheKey = "workspace:layers"

// WorkspaceService manages the dataset registry: listing, registration by
// file path, and registration of pipeline outputs.
type WorkspaceService struct {
	repo    ports.WorkspaceRepository
	cache   ports.CacheService
	events  ports.EventPublisher
	vectors ports.VectorReader
	rasters ports.RasterReader
}

// NewWorkspaceService creates a WorkspaceService.
func NewWorkspaceService(repo ports.WorkspaceRepository, cache ports.CacheService, events ports.EventPublisher, vectors ports.VectorReader, rasters ports.RasterReader) *WorkspaceService {
	return &WorkspaceService{repo: repo, cache: cache, events: events, vectors: vectors, rasters: rasters}
}

// List returns all registered datasets, cached briefly since listings are
// read far more often than the registry changes.
func (s *WorkspaceService) List(ctx context.Context) ([]domain.Dataset, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, layerListCacheKey); err == nil {
			var datasets []domain.Dataset
			if err := json.Unmarshal(data, &datasets); err == nil {
				metrics.CacheHits.WithLabelValues("layers").Inc()
				return datasets, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("layers").Inc()
	}

	datasets, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(datasets); err == nil {
			_ = s.cache.Set(ctx, layerListCacheKey, data, 60)
		}
	}
	return datasets, nil
}

// Get returns a dataset by ID.
func (s *WorkspaceService) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	if id == "" {
		return nil, fmt.Errorf("dataset id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// RegisterFromPath loads a dataset from a file and registers it. The kind
// decides which reader handles the file; an empty name keeps the name
// derived from the file.
func (s *WorkspaceService) RegisterFromPath(ctx context.Context, name string, kind domain.DatasetKind, path string) (*domain.Dataset, error) {
	if path == "" {
		return nil, fmt.Errorf("dataset path is required")
	}

	var (
		ds  *domain.Dataset
		err error
	)
	switch kind {
	case domain.DatasetVector:
		ds, err = s.vectors.LoadVector(ctx, path)
	case domain.DatasetRaster:
		ds, err = s.rasters.LoadRaster(ctx, path)
	default:
		return nil, fmt.Errorf("unknown dataset kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	if name != "" {
		ds.Name = name
	}

	return ds, s.register(ctx, ds)
}

// RegisterOutput registers an enriched point dataset produced by a run.
func (s *WorkspaceService) RegisterOutput(ctx context.Context, ds *domain.Dataset) error {
	return s.register(ctx, ds)
}

// Unregister removes a dataset, used when compensating a failed run so no
// partial outputs stay registered.
func (s *WorkspaceService) Unregister(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *WorkspaceService) register(ctx context.Context, ds *domain.Dataset) error {
	if err := s.repo.Register(ctx, ds); err != nil {
		return fmt.Errorf("register dataset %q: %w", ds.Name, err)
	}
	metrics.DatasetsRegistered.Inc()
	if s.events != nil {
		_ = s.events.PublishDatasetRegistered(ctx, ds)
	}
	s.invalidate(ctx)
	return nil
}

func (s *WorkspaceService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, layerListCacheKey)
	}
}
