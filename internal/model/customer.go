package model

import "time"

// Customer is the subset of the agency's customer record the importer reads and creates.
// Customers are scoped to an organization and matched by exact name.
type Customer struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"org_id"`
	Name          string    `json:"name"`
	Source        string    `json:"source,omitempty"`
	DateOfBirth   string    `json:"date_of_birth,omitempty"`
	LicenseNumber string    `json:"license_number,omitempty"`
	LicenseState  string    `json:"license_state,omitempty"`
	ZipCode       string    `json:"zip_code,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
