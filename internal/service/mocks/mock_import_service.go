package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tt2import/internal/model"
	"tt2import/internal/service"
)

type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Submit(ctx context.Context, req service.SubmitRequest) (*model.ImportJob, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportJob), args.Error(1)
}

func (m *MockImportService) Process(ctx context.Context, jobID string) (*model.ImportResult, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportResult), args.Error(1)
}

func (m *MockImportService) Get(ctx context.Context, jobID string) (*model.ImportJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportJob), args.Error(1)
}
