package storage

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrStorageDisabled = errors.New("storage disabled")
)

// Database persists analysis results per site. Ranges are half open: start is
// included and end is not.
type Database interface {
	UpsertDailyUsage(ctx context.Context, siteID string, days []types.DailyUsage) error
	GetDailyUsage(ctx context.Context, siteID string, start, end civil.Date) ([]types.DailyUsage, error)

	UpsertMonthSummaries(ctx context.Context, siteID string, months []types.MonthSummary) error
	GetMonthSummaries(ctx context.Context, siteID string, start, end types.MonthKey) ([]types.MonthSummary, error)
	// GetMonthSummary returns ErrNotFound when the month has not been stored.
	GetMonthSummary(ctx context.Context, siteID string, month types.MonthKey) (types.MonthSummary, error)

	// Lifecycle
	Close() error
}

// checkSiteID rejects IDs that would add path segments to a document path.
func checkSiteID(siteID string) error {
	return types.ValidateSiteID(siteID)
}

// disabled is used when no storage provider is configured. Every call fails
// with ErrStorageDisabled.
type disabled struct{}

// Disabled returns a Database that stores nothing.
func Disabled() Database {
	return disabled{}
}

func (disabled) UpsertDailyUsage(context.Context, string, []types.DailyUsage) error {
	return ErrStorageDisabled
}

func (disabled) GetDailyUsage(context.Context, string, civil.Date, civil.Date) ([]types.DailyUsage, error) {
	return nil, ErrStorageDisabled
}

func (disabled) UpsertMonthSummaries(context.Context, string, []types.MonthSummary) error {
	return ErrStorageDisabled
}

func (disabled) GetMonthSummaries(context.Context, string, types.MonthKey, types.MonthKey) ([]types.MonthSummary, error) {
	return nil, ErrStorageDisabled
}

func (disabled) GetMonthSummary(_ context.Context, _ string, month types.MonthKey) (types.MonthSummary, error) {
	return types.MonthSummary{}, fmt.Errorf("month %s: %w", month, ErrStorageDisabled)
}

func (disabled) Close() error {
	return nil
}
