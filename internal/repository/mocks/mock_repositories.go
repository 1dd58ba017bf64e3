package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"tt2import/internal/model"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByName(ctx context.Context, orgID, name string, limit int) ([]model.Customer, error) {
	args := m.Called(ctx, orgID, name, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) Create(ctx context.Context, q *model.Quote) (*model.Quote, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quote), args.Error(1)
}

func (m *MockQuoteRepository) ExistsByFingerprint(ctx context.Context, orgID, fingerprint string) (bool, error) {
	args := m.Called(ctx, orgID, fingerprint)
	return args.Bool(0), args.Error(1)
}

type MockImportJobRepository struct {
	mock.Mock
}

func (m *MockImportJobRepository) FindByID(ctx context.Context, id string) (*model.ImportJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportJob), args.Error(1)
}

func (m *MockImportJobRepository) Create(ctx context.Context, job *model.ImportJob) (*model.ImportJob, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportJob), args.Error(1)
}

func (m *MockImportJobRepository) MarkProcessing(ctx context.Context, id string, startedAt time.Time) error {
	args := m.Called(ctx, id, startedAt)
	return args.Error(0)
}

func (m *MockImportJobRepository) Complete(ctx context.Context, id string, out model.JobOutcome) error {
	args := m.Called(ctx, id, out)
	return args.Error(0)
}
