// Package matcher resolves a quote's named insured to a customer of the organization,
// creating the customer when none exists.
//
// Matching is exact string equality on the name. Case sensitivity is whatever the
// backing store compares with. Two imports racing on the same new name can both
// create a customer; nothing here serializes them.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tt2import/internal/model"
	"tt2import/internal/repository"
)

var (
	ErrOrgRequired  = errors.New("organization id is required")
	ErrNameRequired = errors.New("customer name is required")
)

// CustomerAttributes are optional fields copied onto a newly created customer.
// They are ignored when an existing customer matches.
type CustomerAttributes struct {
	Source        string
	DateOfBirth   string
	LicenseNumber string
	LicenseState  string
	ZipCode       string
}

// Match is the resolved customer. Created is true when this call inserted it.
type Match struct {
	CustomerID string
	Created    bool
}

// Matcher finds or creates customers.
type Matcher interface {
	FindOrCreateCustomer(ctx context.Context, orgID, name string, attrs CustomerAttributes) (Match, error)
}

// FindOrCreateCustomer returns the first customer of orgID named name, or creates one.
// With several matches the first one the store returns wins.
func FindOrCreateCustomer(ctx context.Context, repo repository.CustomerRepository, orgID, name string, attrs CustomerAttributes) (Match, error) {
	if orgID == "" {
		return Match{}, ErrOrgRequired
	}
	if name == "" {
		return Match{}, ErrNameRequired
	}

	found, err := repo.FindByName(ctx, orgID, name, 1)
	if err != nil {
		return Match{}, fmt.Errorf("find customer: %w", err)
	}
	if len(found) > 0 {
		return Match{CustomerID: found[0].ID}, nil
	}

	created, err := repo.Create(ctx, &model.Customer{
		ID:            uuid.New().String(),
		OrgID:         orgID,
		Name:          name,
		Source:        attrs.Source,
		DateOfBirth:   attrs.DateOfBirth,
		LicenseNumber: attrs.LicenseNumber,
		LicenseState:  attrs.LicenseState,
		ZipCode:       attrs.ZipCode,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return Match{}, fmt.Errorf("create customer: %w", err)
	}
	return Match{CustomerID: created.ID, Created: true}, nil
}

type storeMatcher struct {
	repo repository.CustomerRepository
}

// New returns a Matcher that goes to repo on every call.
func New(repo repository.CustomerRepository) Matcher {
	return &storeMatcher{repo: repo}
}

func (m *storeMatcher) FindOrCreateCustomer(ctx context.Context, orgID, name string, attrs CustomerAttributes) (Match, error) {
	return FindOrCreateCustomer(ctx, m.repo, orgID, name, attrs)
}
