// Package tt2 parses TurboRater TT2 exports.
//
// A TT2 file is line oriented. Each non-blank line is KEY|field1|field2|...
// Recognized keys:
//
//	NAMED_INSURED|name                              (required)
//	EFFECTIVE_DATE|date
//	DRIVER_n|name|dob|licenseNumber|licenseState
//	VEHICLE_n|vin|year|make|model|garagingZip
//	COVERAGE_BI|limits
//	COVERAGE_PD|limits
//	PREMIUM_BASE|amount   PREMIUM_TAXES|amount   PREMIUM_FEES|amount   PREMIUM_TOTAL|amount
//	CARRIER_n|name|premium|rank
//
// Keys are matched exactly, so named_insured is an unknown key. Unknown keys are ignored.
// Repeated families are appended in the order they appear; the numeric suffix does not
// affect position. For NAMED_INSURED and EFFECTIVE_DATE the first non-empty value wins.
package tt2

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"tt2import/internal/model"
)

const (
	keyNamedInsured  = "NAMED_INSURED"
	keyEffectiveDate = "EFFECTIVE_DATE"
	keyCoverageBI    = "COVERAGE_BI"
	keyCoveragePD    = "COVERAGE_PD"
	keyPremiumBase   = "PREMIUM_BASE"
	keyPremiumTaxes  = "PREMIUM_TAXES"
	keyPremiumFees   = "PREMIUM_FEES"
	keyPremiumTotal  = "PREMIUM_TOTAL"

	prefixDriver  = "DRIVER_"
	prefixVehicle = "VEHICLE_"
	prefixCarrier = "CARRIER_"
)

var (
	ErrEmptyContent     = errors.New("tt2: empty content")
	ErrMalformedContent = errors.New("tt2: content is not valid text")
)

// MissingRequiredFieldError is returned when a required key is absent or blank.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("tt2: missing required field %s", e.Field)
}

// record is one KEY|... line split into its key, its raw remainder and its segments.
type record struct {
	key    string
	raw    string
	fields []string
}

// field returns segment i and whether it was present at all.
func (r record) field(i int) (string, bool) {
	if i >= len(r.fields) {
		return "", false
	}
	return r.fields[i], true
}

// optional returns segment i, or nil when it is missing or empty.
func (r record) optional(i int) *string {
	v, ok := r.field(i)
	if !ok || v == "" {
		return nil
	}
	return &v
}

type familyFunc func(q *model.ParsedQuote, r record)

var families = []struct {
	prefix string
	apply  familyFunc
}{
	{prefixDriver, appendDriver},
	{prefixVehicle, appendVehicle},
	{prefixCarrier, appendCarrier},
}

// Parse converts raw TT2 text into a ParsedQuote.
// On any error no partial result is returned.
func Parse(raw string) (*model.ParsedQuote, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyContent
	}
	if !utf8.ValidString(raw) || strings.ContainsRune(raw, 0) {
		return nil, ErrMalformedContent
	}

	q := &model.ParsedQuote{
		Drivers:  []model.Driver{},
		Vehicles: []model.Vehicle{},
		Carriers: []model.CarrierQuote{},
	}
	insuredSeen := false
	effectiveSeen := false

	for _, line := range strings.Split(raw, "\n") {
		r, ok := splitLine(line)
		if !ok {
			continue
		}
		switch r.key {
		case keyNamedInsured:
			if v, _ := r.field(0); v != "" && !insuredSeen {
				q.NamedInsured = v
				insuredSeen = true
			}
		case keyEffectiveDate:
			if v := r.optional(0); v != nil && !effectiveSeen {
				q.EffectiveDate = v
				effectiveSeen = true
			}
		case keyCoverageBI:
			q.Coverages.BodilyInjury = rawValue(r)
		case keyCoveragePD:
			q.Coverages.PropertyDamage = rawValue(r)
		case keyPremiumBase:
			q.Premiums.BasePremium = amount(r)
		case keyPremiumTaxes:
			q.Premiums.Taxes = amount(r)
		case keyPremiumFees:
			q.Premiums.Fees = amount(r)
		case keyPremiumTotal:
			q.Premiums.TotalPremium = amount(r)
		default:
			for _, f := range families {
				if isFamily(r.key, f.prefix) {
					f.apply(q, r)
					break
				}
			}
		}
	}

	if !insuredSeen {
		return nil, &MissingRequiredFieldError{Field: keyNamedInsured}
	}
	return q, nil
}

func splitLine(line string) (record, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return record{}, false
	}
	key, rest, hasFields := strings.Cut(line, "|")
	r := record{key: strings.TrimSpace(key)}
	if hasFields {
		r.raw = strings.TrimSpace(rest)
		parts := strings.Split(rest, "|")
		r.fields = make([]string, len(parts))
		for i, p := range parts {
			r.fields[i] = strings.TrimSpace(p)
		}
	}
	return r, true
}

// isFamily reports whether key is prefix followed by one or more digits.
func isFamily(key, prefix string) bool {
	suffix, ok := strings.CutPrefix(key, prefix)
	if !ok || suffix == "" {
		return false
	}
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func rawValue(r record) *string {
	if r.raw == "" {
		return nil
	}
	v := r.raw
	return &v
}

// amount parses a non-negative premium. Unusable values leave the field unset.
func amount(r record) *decimal.Decimal {
	v, ok := r.field(0)
	if !ok {
		return nil
	}
	d, err := parseDecimal(v)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

func parseDecimal(v string) (decimal.Decimal, error) {
	v = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(v))
	if v == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	return decimal.NewFromString(v)
}

func appendDriver(q *model.ParsedQuote, r record) {
	name, _ := r.field(0)
	q.Drivers = append(q.Drivers, model.Driver{
		Name:          name,
		DateOfBirth:   r.optional(1),
		LicenseNumber: r.optional(2),
		LicenseState:  r.optional(3),
	})
}

func appendVehicle(q *model.ParsedQuote, r record) {
	v := model.Vehicle{GaragingZip: r.optional(4)}
	// An explicitly empty VIN segment stays "" rather than nil.
	if vin, ok := r.field(0); ok {
		v.VIN = &vin
	}
	if y, ok := r.field(1); ok {
		v.Year, _ = strconv.Atoi(y)
	}
	v.Make, _ = r.field(2)
	v.Model, _ = r.field(3)
	q.Vehicles = append(q.Vehicles, v)
}

func appendCarrier(q *model.ParsedQuote, r record) {
	c := model.CarrierQuote{}
	c.Name, _ = r.field(0)
	if p, ok := r.field(1); ok {
		if d, err := parseDecimal(p); err == nil {
			c.Premium = d
		}
	}
	if rank, ok := r.field(2); ok {
		c.Rank, _ = strconv.Atoi(rank)
	}
	q.Carriers = append(q.Carriers, c)
}
