package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

func testDays() []types.DailyUsage {
	return []types.DailyUsage{
		{Date: civil.Date{Year: 2017, Month: 1, Day: 2}, Usage: types.Usage{Peak: 80, Shoulder: 220, OffPeak: 180, Total: 480}},
		{Date: civil.Date{Year: 2017, Month: 1, Day: 3}, Usage: types.Usage{OffPeak: 23.2, Total: 23.2, Demand: 23.2}},
		{Date: civil.Date{Year: 2017, Month: 2, Day: 1}, Usage: types.Usage{OffPeak: 48, Total: 48}},
	}
}

func testMonths() []types.MonthSummary {
	return []types.MonthSummary{
		{
			Month: types.MonthKey{Year: 2016, Month: time.December},
			Usage: types.MonthUsage{Days: 31, Peak: 47.8, OffPeak: 128.84, Total: 176.64, Demand: 1.2},
			Bill: &types.Bill{
				Tariff: "T14", Retailer: "Ergon", FinancialYear: "2016", Kind: types.TariffKindDemand, Days: 31,
				Total: types.Charge{
					CostExclGST: decimal.RequireFromString("8957.091"),
					GST:         decimal.RequireFromString("895.7091"),
					CostInclGST: decimal.RequireFromString("9852.8001"),
				},
			},
		},
		{
			Month: types.MonthKey{Year: 2017, Month: time.January},
			Usage: types.MonthUsage{Days: 31, Total: 503.2},
		},
	}
}

func TestSQLiteProvider(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	t.Run("Validate", func(t *testing.T) {
		require.NoError(t, s.Validate())
		assert.Error(t, (&SQLiteProvider{}).Validate())
	})

	t.Run("DailyUsage", func(t *testing.T) {
		require.NoError(t, s.UpsertDailyUsage(ctx, "test-site", testDays()))

		days, err := s.GetDailyUsage(ctx, "test-site", civil.Date{Year: 2017, Month: 1, Day: 1}, civil.Date{Year: 2017, Month: 2, Day: 1})
		require.NoError(t, err)
		assert.Equal(t, testDays()[:2], days)

		// upsert replaces
		updated := testDays()[1:2]
		updated[0].Usage.Total = 99
		require.NoError(t, s.UpsertDailyUsage(ctx, "test-site", updated))
		days, err = s.GetDailyUsage(ctx, "test-site", civil.Date{Year: 2017, Month: 1, Day: 3}, civil.Date{Year: 2017, Month: 1, Day: 4})
		require.NoError(t, err)
		require.Len(t, days, 1)
		assert.Equal(t, 99.0, days[0].Usage.Total)

		// other sites are separate
		days, err = s.GetDailyUsage(ctx, "other-site", civil.Date{Year: 2017, Month: 1, Day: 1}, civil.Date{Year: 2018, Month: 1, Day: 1})
		require.NoError(t, err)
		assert.Empty(t, days)
	})

	t.Run("MonthSummaries", func(t *testing.T) {
		require.NoError(t, s.UpsertMonthSummaries(ctx, "test-site", testMonths()))

		months, err := s.GetMonthSummaries(ctx, "test-site", types.MonthKey{Year: 2016, Month: time.January}, types.MonthKey{Year: 2017, Month: time.February})
		require.NoError(t, err)
		require.Len(t, months, 2)
		assert.Equal(t, testMonths()[0].Month, months[0].Month)
		assert.Equal(t, testMonths()[0].Usage, months[0].Usage)
		require.NotNil(t, months[0].Bill)
		assert.True(t, testMonths()[0].Bill.Total.CostInclGST.Equal(months[0].Bill.Total.CostInclGST))
		assert.Nil(t, months[1].Bill)

		months, err = s.GetMonthSummaries(ctx, "test-site", types.MonthKey{Year: 2017, Month: time.January}, types.MonthKey{Year: 2017, Month: time.January})
		require.NoError(t, err)
		assert.Empty(t, months)
	})

	t.Run("MonthSummary", func(t *testing.T) {
		summary, err := s.GetMonthSummary(ctx, "test-site", types.MonthKey{Year: 2017, Month: time.January})
		require.NoError(t, err)
		assert.Equal(t, 503.2, summary.Usage.Total)

		_, err = s.GetMonthSummary(ctx, "test-site", types.MonthKey{Year: 2030, Month: time.January})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("EmptySiteID", func(t *testing.T) {
		err := s.UpsertDailyUsage(ctx, "", testDays())
		assert.ErrorContains(t, err, "siteID cannot be empty")
		_, err = s.GetMonthSummaries(ctx, "", types.MonthKey{}, types.MonthKey{})
		assert.ErrorContains(t, err, "siteID cannot be empty")
	})

	t.Run("InvalidSiteID", func(t *testing.T) {
		for _, siteID := range []string{"a/b", "sites/x/daily_usage", "#", "+"} {
			err := s.UpsertMonthSummaries(ctx, siteID, testMonths())
			assert.ErrorIs(t, err, types.ErrInvalidSiteID, siteID)
			_, err = s.GetDailyUsage(ctx, siteID, civil.Date{Year: 2017, Month: 1, Day: 1}, civil.Date{Year: 2017, Month: 2, Day: 1})
			assert.ErrorIs(t, err, types.ErrInvalidSiteID, siteID)
		}
	})
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	var db Database = disabled{}
	assert.ErrorIs(t, db.UpsertDailyUsage(ctx, "site", nil), ErrStorageDisabled)
	_, err := db.GetMonthSummary(ctx, "site", types.MonthKey{Year: 2017, Month: time.January})
	assert.ErrorIs(t, err, ErrStorageDisabled)
	assert.NoError(t, db.Close())
}
