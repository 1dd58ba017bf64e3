package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tt2import/internal/matcher"
)

type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) FindOrCreateCustomer(ctx context.Context, orgID, name string, attrs matcher.CustomerAttributes) (matcher.Match, error) {
	args := m.Called(ctx, orgID, name, attrs)
	return args.Get(0).(matcher.Match), args.Error(1)
}
