// Package fingerprint derives the deduplication key of a parsed quote.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"tt2import/internal/model"
)

const placeholder = "~"

// Generate hashes the normalized named insured, the primary driver's date of birth,
// the primary vehicle's VIN and the effective date. It never fails; missing parts
// are replaced with a fixed placeholder. Each part is length-prefixed before hashing,
// so no value can shift bytes into its neighbour. The result is a 64 character hex SHA-256.
func Generate(q *model.ParsedQuote) string {
	if q == nil {
		q = &model.ParsedQuote{}
	}

	parts := []string{
		orPlaceholder(strings.ToLower(strings.TrimSpace(q.NamedInsured))),
		placeholder,
		placeholder,
		placeholder,
	}
	if d, ok := q.PrimaryDriver(); ok && d.DateOfBirth != nil {
		parts[1] = orPlaceholder(strings.TrimSpace(*d.DateOfBirth))
	}
	if v, ok := q.PrimaryVehicle(); ok && v.VIN != nil {
		parts[2] = orPlaceholder(strings.ToUpper(strings.TrimSpace(*v.VIN)))
	}
	if q.EffectiveDate != nil {
		parts[3] = orPlaceholder(strings.TrimSpace(*q.EffectiveDate))
	}

	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p)) + ":" + p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}
