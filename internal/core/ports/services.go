package ports

import (
	"context"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// LayerPicker lets the operator designate one layer out of a candidate list.
// ok is false when the prompt was cancelled; the resolver aborts the run in
// that case without any further side effect.
type LayerPicker interface {
	PickLayer(ctx context.Context, title string, candidates []string) (name string, ok bool, err error)
}

// EventPublisher publishes run lifecycle and workspace events to a broker.
type EventPublisher interface {
	PublishRunStarted(ctx context.Context, run *domain.Run) error
	PublishRunCompleted(ctx context.Context, run *domain.Run) error
	PublishRunFailed(ctx context.Context, run *domain.Run) error
	PublishDatasetRegistered(ctx context.Context, ds *domain.Dataset) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
