package ports

import (
	"context"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// WorkspaceRepository persists the dataset registry.
type WorkspaceRepository interface {
	Register(ctx context.Context, ds *domain.Dataset) error
	GetByID(ctx context.Context, id string) (*domain.Dataset, error)
	GetByName(ctx context.Context, name string) (*domain.Dataset, error)
	List(ctx context.Context) ([]domain.Dataset, error)
	Delete(ctx context.Context, id string) error
}

// RunRepository persists pipeline run records.
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context, limit int) ([]domain.Run, error)
}
