package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tt2import/internal/model"
	"tt2import/internal/repository"
)

// QuotePostgres is a PostgreSQL implementation of repository.QuoteRepository.
// The parsed quote is stored as JSONB next to the columns used for lookups.
type QuotePostgres struct {
	db *sql.DB
}

// NewQuotePostgres creates a new QuotePostgres repository.
func NewQuotePostgres(db *sql.DB) *QuotePostgres {
	return &QuotePostgres{db: db}
}

var _ repository.QuoteRepository = (*QuotePostgres)(nil)

// Create inserts a quote row and returns it with the id and created_at the database kept.
func (r *QuotePostgres) Create(ctx context.Context, q *model.Quote) (*model.Quote, error) {
	data, err := json.Marshal(q.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal quote data: %w", err)
	}

	const stmt = `
		INSERT INTO quotes (id, org_id, customer_id, import_job_id, file_name, fingerprint, source,
			named_insured, effective_date, total_premium, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	out := *q
	if err := r.db.QueryRowContext(ctx, stmt,
		q.ID,
		q.OrgID,
		q.CustomerID,
		q.ImportJobID,
		q.FileName,
		q.Fingerprint,
		q.Source,
		q.NamedInsured,
		q.EffectiveDate,
		q.TotalPremium,
		data,
		q.CreatedAt,
	).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExistsByFingerprint reports whether orgID already has a quote with the fingerprint.
func (r *QuotePostgres) ExistsByFingerprint(ctx context.Context, orgID, fingerprint string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM quotes WHERE org_id = $1 AND fingerprint = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, orgID, fingerprint).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
