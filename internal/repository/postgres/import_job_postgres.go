package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tt2import/internal/model"
	"tt2import/internal/repository"
)

// ImportJobPostgres is a PostgreSQL implementation of repository.ImportJobRepository.
// Status changes are guarded in the WHERE clause so a job can never move backwards.
type ImportJobPostgres struct {
	db *sql.DB
}

// NewImportJobPostgres creates a new ImportJobPostgres repository.
func NewImportJobPostgres(db *sql.DB) *ImportJobPostgres {
	return &ImportJobPostgres{db: db}
}

var _ repository.ImportJobRepository = (*ImportJobPostgres)(nil)

// Ping checks database connectivity for the health endpoint.
func (r *ImportJobPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create inserts a new job. The stored status is always PENDING.
func (r *ImportJobPostgres) Create(ctx context.Context, job *model.ImportJob) (*model.ImportJob, error) {
	files, err := json.Marshal(job.Files)
	if err != nil {
		return nil, fmt.Errorf("marshal files: %w", err)
	}

	const q = `
		INSERT INTO import_jobs (id, org_id, created_by, files, status, counts, errors, created_at)
		VALUES ($1, $2, $3, $4, $5, '{}', '[]', $6)
		RETURNING created_at
	`
	out := *job
	out.Status = model.JobPending
	out.Errors = []model.ImportError{}
	if err := r.db.QueryRowContext(ctx, q,
		job.ID,
		job.OrgID,
		job.CreatedBy,
		files,
		model.JobPending,
		job.CreatedAt,
	).Scan(&out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID returns a job or repository.ErrNotFound.
func (r *ImportJobPostgres) FindByID(ctx context.Context, id string) (*model.ImportJob, error) {
	const q = `
		SELECT id, org_id, created_by, files, status, counts, errors, started_at, finished_at, created_at
		FROM import_jobs
		WHERE id = $1
	`
	var (
		job                   model.ImportJob
		files, counts, errs   []byte
		startedAt, finishedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&job.ID,
		&job.OrgID,
		&job.CreatedBy,
		&files,
		&job.Status,
		&counts,
		&errs,
		&startedAt,
		&finishedAt,
		&job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(files, &job.Files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	if err := json.Unmarshal(counts, &job.Counts); err != nil {
		return nil, fmt.Errorf("decode counts: %w", err)
	}
	if err := json.Unmarshal(errs, &job.Errors); err != nil {
		return nil, fmt.Errorf("decode errors: %w", err)
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	return &job, nil
}

// MarkProcessing moves a PENDING job to PROCESSING.
func (r *ImportJobPostgres) MarkProcessing(ctx context.Context, id string, startedAt time.Time) error {
	const q = `
		UPDATE import_jobs
		SET status = $2, started_at = $3
		WHERE id = $1 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, q, id, model.JobProcessing, startedAt, model.JobPending)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// Complete writes the terminal outcome of a PROCESSING job.
func (r *ImportJobPostgres) Complete(ctx context.Context, id string, out model.JobOutcome) error {
	if !out.Status.IsTerminal() {
		return fmt.Errorf("complete job %s: %q is not a terminal status", id, out.Status)
	}
	counts, err := json.Marshal(out.Counts)
	if err != nil {
		return fmt.Errorf("marshal counts: %w", err)
	}
	errs := out.Errors
	if errs == nil {
		errs = []model.ImportError{}
	}
	errJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	const q = `
		UPDATE import_jobs
		SET status = $2, counts = $3, errors = $4, finished_at = $5
		WHERE id = $1 AND status = $6
	`
	res, err := r.db.ExecContext(ctx, q, id, out.Status, counts, errJSON, out.FinishedAt, model.JobProcessing)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// expectOneRow maps a guarded UPDATE that touched nothing to ErrStaleTransition.
// A missing job reports the same error.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStaleTransition
	}
	return nil
}
