// Package repository contains the document-store abstractions used by the importer.
// Implementations live in subpackages (postgres, dynamodb). All reads and writes are
// scoped by organization id.
package repository

import (
	"context"
	"errors"
	"time"

	"tt2import/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleTransition is returned when a guarded status update finds the job
	// in a different state than required.
	ErrStaleTransition = errors.New("job status changed concurrently")
)

// CustomerRepository reads and creates customer records.
type CustomerRepository interface {
	// FindByName returns up to limit customers of orgID whose name equals name exactly.
	// Ordering is whatever the backend returns.
	FindByName(ctx context.Context, orgID, name string, limit int) ([]model.Customer, error)

	// Create inserts a new customer and returns it with its assigned id.
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
}

// QuoteRepository persists imported quotes.
type QuoteRepository interface {
	// Create inserts a quote. Quotes are never updated by the importer.
	Create(ctx context.Context, q *model.Quote) (*model.Quote, error)

	// ExistsByFingerprint reports whether orgID already holds a quote with fingerprint.
	ExistsByFingerprint(ctx context.Context, orgID, fingerprint string) (bool, error)
}

// ImportJobReader is the read side of the job store, open to any caller.
type ImportJobReader interface {
	FindByID(ctx context.Context, id string) (*model.ImportJob, error)
}

// ImportJobRepository is the full job store. Only the submission path calls Create;
// MarkProcessing and Complete are reserved for the import processor.
type ImportJobRepository interface {
	ImportJobReader

	// Create stores a new PENDING job.
	Create(ctx context.Context, job *model.ImportJob) (*model.ImportJob, error)

	// MarkProcessing moves a job from PENDING to PROCESSING.
	// It returns ErrStaleTransition when the job is not PENDING.
	MarkProcessing(ctx context.Context, id string, startedAt time.Time) error

	// Complete writes the terminal status, counts and errors of a PROCESSING job.
	// It returns ErrStaleTransition when the job is not PROCESSING.
	Complete(ctx context.Context, id string, out model.JobOutcome) error
}
