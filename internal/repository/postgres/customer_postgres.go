package postgres

import (
	"context"
	"database/sql"

	"tt2import/internal/model"
	"tt2import/internal/repository"
)

// CustomerPostgres is a PostgreSQL implementation of repository.CustomerRepository.
type CustomerPostgres struct {
	db *sql.DB
}

// NewCustomerPostgres creates a new CustomerPostgres repository.
func NewCustomerPostgres(db *sql.DB) *CustomerPostgres {
	return &CustomerPostgres{db: db}
}

var _ repository.CustomerRepository = (*CustomerPostgres)(nil)

const customerColumns = `id, org_id, name, source, date_of_birth, license_number, license_state, zip_code, created_at`

// FindByName returns customers of orgID whose name matches exactly, in whatever order
// the planner produces. No ORDER BY is applied.
func (r *CustomerPostgres) FindByName(ctx context.Context, orgID, name string, limit int) ([]model.Customer, error) {
	const q = `SELECT ` + customerColumns + `
		FROM customers
		WHERE org_id = $1 AND name = $2
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, q, orgID, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a customer row and returns the stored record.
func (r *CustomerPostgres) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	const q = `
		INSERT INTO customers (id, org_id, name, source, date_of_birth, license_number, license_state, zip_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + customerColumns
	row := r.db.QueryRowContext(ctx, q,
		c.ID,
		c.OrgID,
		c.Name,
		c.Source,
		c.DateOfBirth,
		c.LicenseNumber,
		c.LicenseState,
		c.ZipCode,
		c.CreatedAt,
	)
	return scanCustomer(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s scanner) (*model.Customer, error) {
	var c model.Customer
	if err := s.Scan(
		&c.ID,
		&c.OrgID,
		&c.Name,
		&c.Source,
		&c.DateOfBirth,
		&c.LicenseNumber,
		&c.LicenseState,
		&c.ZipCode,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
