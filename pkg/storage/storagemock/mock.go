package storagemock

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/mock"

	"github.com/qldtariffs/qldtariffs/pkg/storage"
	"github.com/qldtariffs/qldtariffs/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) UpsertDailyUsage(ctx context.Context, siteID string, days []types.DailyUsage) error {
	args := m.Called(ctx, siteID, days)
	return args.Error(0)
}

func (m *MockDatabase) GetDailyUsage(ctx context.Context, siteID string, start, end civil.Date) ([]types.DailyUsage, error) {
	args := m.Called(ctx, siteID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.DailyUsage), args.Error(1)
}

func (m *MockDatabase) UpsertMonthSummaries(ctx context.Context, siteID string, months []types.MonthSummary) error {
	args := m.Called(ctx, siteID, months)
	return args.Error(0)
}

func (m *MockDatabase) GetMonthSummaries(ctx context.Context, siteID string, start, end types.MonthKey) ([]types.MonthSummary, error) {
	args := m.Called(ctx, siteID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.MonthSummary), args.Error(1)
}

func (m *MockDatabase) GetMonthSummary(ctx context.Context, siteID string, month types.MonthKey) (types.MonthSummary, error) {
	args := m.Called(ctx, siteID, month)
	return args.Get(0).(types.MonthSummary), args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
