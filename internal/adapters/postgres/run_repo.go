package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// RunRepo implements ports.RunRepository.
type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	selection, params, err := encodeRun(run)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO runs (id, status, selection, params, counts, output_ids, error, created_at, completed_at)
		VALUES ($1, $2, $3, $4, '{}', $5, $6, $7, NULL)
	`, run.ID, string(run.Status), selection, params, run.OutputIDs, run.Error, run.CreatedAt)
	return err
}

func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return fmt.Errorf("encode run counts: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		UPDATE runs SET status = $2, counts = $3, output_ids = $4, error = $5, completed_at = $6
		WHERE id = $1
	`, run.ID, string(run.Status), counts, run.OutputIDs, run.Error, run.CompletedAt)
	return err
}

func (r *RunRepo) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, status, selection, params, counts, output_ids, COALESCE(error, ''), created_at, completed_at
		FROM runs WHERE id = $1
	`, id)
	return scanRun(row)
}

func (r *RunRepo) List(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, status, selection, params, counts, output_ids, COALESCE(error, ''), created_at, completed_at
		FROM runs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	run := &domain.Run{}
	var status string
	var selection, params, counts []byte
	if err := row.Scan(&run.ID, &status, &selection, &params, &counts,
		&run.OutputIDs, &run.Error, &run.CreatedAt, &run.CompletedAt); err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	if err := json.Unmarshal(selection, &run.Selection); err != nil {
		return nil, fmt.Errorf("decode run selection: %w", err)
	}
	if err := json.Unmarshal(params, &run.Params); err != nil {
		return nil, fmt.Errorf("decode run params: %w", err)
	}
	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &run.Counts); err != nil {
			return nil, fmt.Errorf("decode run counts: %w", err)
		}
	}
	return run, nil
}

func encodeRun(run *domain.Run) (selection, params []byte, err error) {
	selection, err = json.Marshal(run.Selection)
	if err != nil {
		return nil, nil, fmt.Errorf("encode run selection: %w", err)
	}
	params, err = json.Marshal(run.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("encode run params: %w", err)
	}
	return selection, params, nil
}
