package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceTurboRater tags quotes created by the TT2 import pipeline.
const SourceTurboRater = "turborater"

// ParsedQuote is the structured form of a single TT2 export.
// It is produced per file by the parser and is not stored on its own; it lives on
// as the Data of the persisted Quote.
type ParsedQuote struct {
	NamedInsured  string         `json:"namedInsured"`
	EffectiveDate *string        `json:"effectiveDate,omitempty"`
	Drivers       []Driver       `json:"drivers"`
	Vehicles      []Vehicle      `json:"vehicles"`
	Coverages     Coverages      `json:"coverages"`
	Premiums      Premiums       `json:"premiums"`
	Carriers      []CarrierQuote `json:"carriers"`
}

// Driver is one DRIVER_n line.
type Driver struct {
	Name          string  `json:"name"`
	DateOfBirth   *string `json:"dateOfBirth,omitempty"`
	LicenseNumber *string `json:"licenseNumber,omitempty"`
	LicenseState  *string `json:"licenseState,omitempty"`
}

// Vehicle is one VEHICLE_n line.
// VIN is nil when the segment is missing and points to "" when the segment is present but empty.
type Vehicle struct {
	VIN         *string `json:"vin,omitempty"`
	Year        int     `json:"year,omitempty"`
	Make        string  `json:"make,omitempty"`
	Model       string  `json:"model,omitempty"`
	GaragingZip *string `json:"garagingZip,omitempty"`
}

// Coverages holds carrier-format limits verbatim, e.g. "100000/300000".
type Coverages struct {
	BodilyInjury   *string `json:"bodilyInjury,omitempty"`
	PropertyDamage *string `json:"propertyDamage,omitempty"`
}

// Premiums is the premium breakdown. Unset fields were absent (or unusable) in the source.
type Premiums struct {
	BasePremium  *decimal.Decimal `json:"basePremium,omitempty"`
	Taxes        *decimal.Decimal `json:"taxes,omitempty"`
	Fees         *decimal.Decimal `json:"fees,omitempty"`
	TotalPremium *decimal.Decimal `json:"totalPremium,omitempty"`
}

// Total returns the total premium, or zero when it was not present.
func (p Premiums) Total() decimal.Decimal {
	if p.TotalPremium == nil {
		return decimal.Zero
	}
	return *p.TotalPremium
}

// CarrierQuote is one CARRIER_n line: a carrier's rate and its rank among the offers.
type CarrierQuote struct {
	Name    string          `json:"name"`
	Premium decimal.Decimal `json:"premium"`
	Rank    int             `json:"rank"`
}

// PrimaryDriver returns the first driver, if any.
func (q *ParsedQuote) PrimaryDriver() (Driver, bool) {
	if len(q.Drivers) == 0 {
		return Driver{}, false
	}
	return q.Drivers[0], true
}

// PrimaryVehicle returns the first vehicle, if any.
func (q *ParsedQuote) PrimaryVehicle() (Vehicle, bool) {
	if len(q.Vehicles) == 0 {
		return Vehicle{}, false
	}
	return q.Vehicles[0], true
}

// Quote is the persisted result of one successfully imported file.
// It is written once and never updated by the import pipeline.
type Quote struct {
	ID            string          `json:"id"`
	OrgID         string          `json:"org_id"`
	CustomerID    string          `json:"customer_id"`
	ImportJobID   string          `json:"import_job_id"`
	FileName      string          `json:"file_name"`
	Fingerprint   string          `json:"fingerprint"`
	Source        string          `json:"source"`
	NamedInsured  string          `json:"named_insured"`
	EffectiveDate *string         `json:"effective_date,omitempty"`
	TotalPremium  decimal.Decimal `json:"total_premium"`
	Data          ParsedQuote     `json:"data"`
	CreatedAt     time.Time       `json:"created_at"`
}
