package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

func dayReading(day time.Time, usage float64) types.Reading {
	return types.Reading{Start: day, End: day.AddDate(0, 0, 1), Usage: usage}
}

func TestMonthlyUsage(t *testing.T) {
	t.Run("single month", func(t *testing.T) {
		monthly, err := MonthlyUsage([]types.Reading{
			{Start: date(2016, 12, 1, 0, 0), End: date(2017, 1, 1, 0, 0), Usage: 480},
		}, ergonRules)
		require.NoError(t, err)

		months := SortedMonths(monthly)
		require.Len(t, months, 1)
		assert.Equal(t, types.MonthKey{Year: 2016, Month: time.December}, months[0].Month)
		assert.Equal(t, 31, months[0].Usage.Days)
		assert.InDelta(t, 480, months[0].Usage.Total, 1e-6)
	})

	t.Run("two months", func(t *testing.T) {
		monthly, err := MonthlyUsage([]types.Reading{
			{Start: date(2016, 12, 1, 0, 0), End: date(2017, 2, 1, 0, 0), Usage: 620},
		}, ergonRules)
		require.NoError(t, err)

		months := SortedMonths(monthly)
		require.Len(t, months, 2)
		assert.Equal(t, types.MonthKey{Year: 2016, Month: time.December}, months[0].Month)
		assert.Equal(t, types.MonthKey{Year: 2017, Month: time.January}, months[1].Month)
		assert.InDelta(t, 310, months[0].Usage.Total, 1e-6)
		assert.InDelta(t, 310, months[1].Usage.Total, 1e-6)
	})

	t.Run("midnight interval attributed to the earlier month", func(t *testing.T) {
		monthly, err := MonthlyUsage([]types.Reading{
			{Start: date(2017, 1, 31, 23, 30), End: date(2017, 2, 1, 0, 0), Usage: 5},
		}, ergonRules)
		require.NoError(t, err)
		require.Len(t, monthly, 1)

		jan, ok := monthly[types.MonthKey{Year: 2017, Month: time.January}]
		require.True(t, ok)
		assert.Equal(t, 31, jan.Days)
		assert.InDelta(t, 5, jan.Total, 1e-9)
	})

	t.Run("partial month reports calendar days", func(t *testing.T) {
		monthly, err := MonthlyUsage([]types.Reading{
			dayReading(date(2016, 2, 10, 0, 0), 10),
		}, ergonRules)
		require.NoError(t, err)
		assert.Equal(t, 29, monthly[types.MonthKey{Year: 2016, Month: time.February}].Days)
	})

	t.Run("full december", func(t *testing.T) {
		readings := []types.Reading{dayReading(date(2016, 12, 1, 0, 0), 6.29)}
		for d := 2; d <= 31; d++ {
			readings = append(readings, dayReading(date(2016, 12, d, 0, 0), 170.35/30))
		}

		monthly, err := MonthlyUsage(readings, ergonRules)
		require.NoError(t, err)
		require.Len(t, monthly, 1)

		dec := monthly[types.MonthKey{Year: 2016, Month: time.December}]
		assert.Equal(t, 31, dec.Days)
		assert.InDelta(t, 176.64, dec.Total, 1e-6)
		assert.InDelta(t, dec.Total, dec.Peak+dec.Shoulder+dec.OffPeak, 1e-9)
		assert.InDelta(t, 176.64*13/48, dec.Peak, 1e-6)
		assert.Zero(t, dec.Shoulder)

		// the first day uses the most, the rest tie and are taken in date order
		other := 170.35 / 30
		want := (6.29 + 3*other) / 4 * 13 / 48 / PeakWindowHours
		assert.InDelta(t, want, dec.Demand, 1e-9)
	})

	t.Run("demand from top days", func(t *testing.T) {
		monthly, err := MonthlyUsage(peakRecords, aglRules)
		require.NoError(t, err)

		jan := monthly[types.MonthKey{Year: 2017, Month: time.January}]
		// Jan 2 has 80 kWh of peak, Jan 3 has none at all
		assert.InDelta(t, (80/PeakWindowHours)/2, jan.Demand, 1e-9)
	})

	t.Run("no peak or shoulder usage", func(t *testing.T) {
		monthly, err := MonthlyUsage(offpeakRecords, ergonRules)
		require.NoError(t, err)
		assert.Zero(t, monthly[types.MonthKey{Year: 2017, Month: time.April}].Demand)
	})

	t.Run("empty", func(t *testing.T) {
		monthly, err := MonthlyUsage(nil, ergonRules)
		require.NoError(t, err)
		assert.Empty(t, monthly)
	})
}
