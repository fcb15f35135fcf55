package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

// PostgresRunRepository persists run history and per-request results.
//
// Schema:
//
//	CREATE TABLE runs (
//	    id UUID PRIMARY KEY,
//	    status TEXT NOT NULL,
//	    total_requests INT NOT NULL,
//	    completed_requests INT NOT NULL,
//	    failed_requests INT NOT NULL,
//	    artifact_ref TEXT NOT NULL DEFAULT '',
//	    error_message TEXT NOT NULL DEFAULT '',
//	    started_at TIMESTAMPTZ NOT NULL,
//	    finished_at TIMESTAMPTZ,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE run_results (
//	    run_id UUID NOT NULL REFERENCES runs(id),
//	    plate TEXT NOT NULL,
//	    document_number TEXT NOT NULL,
//	    soat TEXT NOT NULL,
//	    limitaciones TEXT NOT NULL,
//	    failure_reason TEXT NOT NULL DEFAULT ''
//	);
type PostgresRunRepository struct {
	db *sql.DB
}

func NewPostgresRunRepository(db *sql.DB) domain.RunRepository {
	return &PostgresRunRepository{db: db}
}

func (r *PostgresRunRepository) Save(ctx context.Context, run *domain.Run) error {
	query := `
          INSERT INTO runs (
              id, status, total_requests, completed_requests, failed_requests,
              artifact_ref, error_message, started_at, finished_at,
              created_at, updated_at
          ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
          ON CONFLICT (id) DO UPDATE SET
              status = EXCLUDED.status,
              total_requests = EXCLUDED.total_requests,
              completed_requests = EXCLUDED.completed_requests,
              failed_requests = EXCLUDED.failed_requests,
              artifact_ref = EXCLUDED.artifact_ref,
              error_message = EXCLUDED.error_message,
              finished_at = EXCLUDED.finished_at,
              updated_at = EXCLUDED.updated_at
      `
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status.String(), run.TotalRequests, run.CompletedRequests, run.FailedRequests,
		run.ArtifactRef, run.ErrorMessage, run.StartedAt, run.FinishedAt,
		run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save run failed: %w", err)
	}
	return nil
}

func (r *PostgresRunRepository) SaveResults(ctx context.Context, runID uuid.UUID, results []domain.RequestResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx failed: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO run_results (run_id, plate, document_number, soat, limitaciones, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, result := range results {
		soat := domain.ErrorCell
		limitaciones := domain.ErrorCell
		if result.Outcome.Success {
			soat = string(result.Outcome.SoatStatus)
			limitaciones = result.Outcome.Limitations
		}
		_, err := tx.ExecContext(ctx, query,
			runID, result.Request.Plate, result.Request.DocumentNumber,
			soat, limitaciones, result.Outcome.FailureReason,
		)
		if err != nil {
			return fmt.Errorf("save result for %s failed: %w", result.Request.Plate, err)
		}
	}
	return tx.Commit()
}

func (r *PostgresRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, status, total_requests, completed_requests, failed_requests,
			   artifact_ref, error_message, started_at, finished_at,
			   created_at, updated_at
		FROM runs
		WHERE id = $1
	`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *PostgresRunRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Run, error) {
	query := `
		SELECT id, status, total_requests, completed_requests, failed_requests,
			   artifact_ref, error_message, started_at, finished_at,
			   created_at, updated_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*domain.Run, error) {
	var run domain.Run
	var statusStr string
	err := row.Scan(
		&run.ID, &statusStr, &run.TotalRequests, &run.CompletedRequests, &run.FailedRequests,
		&run.ArtifactRef, &run.ErrorMessage, &run.StartedAt, &run.FinishedAt,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(statusStr)
	return &run, nil
}
