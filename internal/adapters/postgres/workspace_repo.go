package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// WorkspaceRepo implements ports.WorkspaceRepository. Vector payloads are
// stored as JSONB; raster datasets keep only their source path and are
// materialised from it on demand.
type WorkspaceRepo struct {
	db *DB
}

func NewWorkspaceRepo(db *DB) *WorkspaceRepo {
	return &WorkspaceRepo{db: db}
}

// geometryPayload is the stored JSON shape of a vector dataset.
type geometryPayload struct {
	Lines    *domain.LineFeatureSet    `json:"lines,omitempty"`
	Polygons *domain.PolygonFeatureSet `json:"polygons,omitempty"`
	Points   *domain.PointFeatureSet   `json:"points,omitempty"`
}

func (r *WorkspaceRepo) Register(ctx context.Context, ds *domain.Dataset) error {
	var payload []byte
	if ds.Kind == domain.DatasetVector {
		data, err := json.Marshal(geometryPayload{Lines: ds.Lines, Polygons: ds.Polygons, Points: ds.Points})
		if err != nil {
			return fmt.Errorf("encode dataset %q: %w", ds.Name, err)
		}
		payload = data
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO datasets (id, name, kind, crs, source_path, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ds.ID, ds.Name, string(ds.Kind), string(ds.CRS), ds.SourcePath, payload, ds.CreatedAt)
	return err
}

func (r *WorkspaceRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	return r.get(ctx, `SELECT id, name, kind, crs, COALESCE(source_path, ''), payload, created_at
		FROM datasets WHERE id = $1`, id)
}

// GetByName returns the most recently registered dataset with the given
// name; run outputs reuse fixed names, so latest wins.
func (r *WorkspaceRepo) GetByName(ctx context.Context, name string) (*domain.Dataset, error) {
	return r.get(ctx, `SELECT id, name, kind, crs, COALESCE(source_path, ''), payload, created_at
		FROM datasets WHERE name = $1 ORDER BY created_at DESC LIMIT 1`, name)
}

func (r *WorkspaceRepo) get(ctx context.Context, query, arg string) (*domain.Dataset, error) {
	ds := &domain.Dataset{}
	var kind, crs string
	var payload []byte
	err := r.db.Pool.QueryRow(ctx, query, arg).
		Scan(&ds.ID, &ds.Name, &kind, &crs, &ds.SourcePath, &payload, &ds.CreatedAt)
	if err != nil {
		return nil, err
	}
	ds.Kind = domain.DatasetKind(kind)
	ds.CRS = domain.CRS(crs)
	if err := decodePayload(ds, payload); err != nil {
		return nil, err
	}
	return ds, nil
}

func (r *WorkspaceRepo) List(ctx context.Context) ([]domain.Dataset, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, kind, crs, COALESCE(source_path, ''), payload, created_at
		FROM datasets ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []domain.Dataset
	for rows.Next() {
		var ds domain.Dataset
		var kind, crs string
		var payload []byte
		if err := rows.Scan(&ds.ID, &ds.Name, &kind, &crs, &ds.SourcePath, &payload, &ds.CreatedAt); err != nil {
			return nil, err
		}
		ds.Kind = domain.DatasetKind(kind)
		ds.CRS = domain.CRS(crs)
		if err := decodePayload(&ds, payload); err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return datasets, rows.Err()
}

func (r *WorkspaceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	return err
}

func decodePayload(ds *domain.Dataset, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var p geometryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode dataset %q: %w", ds.Name, err)
	}
	ds.Lines = p.Lines
	ds.Polygons = p.Polygons
	ds.Points = p.Points
	return nil
}
