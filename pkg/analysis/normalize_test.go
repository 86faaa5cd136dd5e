package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

func TestBillingEnd(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"on the hour", date(2017, 1, 2, 0, 0), date(2017, 1, 2, 0, 0)},
		{"first half", date(2017, 1, 2, 0, 20), date(2017, 1, 2, 0, 30)},
		{"half hour", date(2017, 1, 2, 0, 30), date(2017, 1, 2, 0, 30)},
		{"second half", date(2017, 1, 2, 0, 40), date(2017, 1, 2, 1, 0)},
		{"day rollover", date(2017, 1, 1, 23, 40), date(2017, 1, 2, 0, 0)},
		{"year rollover", date(2016, 12, 31, 23, 59), date(2017, 1, 1, 0, 0)},
		{"seconds dropped", time.Date(2017, 1, 2, 10, 10, 45, 0, time.UTC), date(2017, 1, 2, 10, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BillingEnd(tt.in))
		})
	}

	t.Run("location kept", func(t *testing.T) {
		loc := time.FixedZone("AEST", 10*60*60)
		got := BillingEnd(time.Date(2017, 1, 2, 9, 10, 0, 0, loc))
		assert.Equal(t, loc, got.Location())
		assert.Equal(t, 30, got.Minute())
	})
}

func TestBillingIntervals(t *testing.T) {
	start := date(2016, 12, 31, 0, 0)
	end := date(2017, 1, 1, 0, 0)

	split := BillingIntervals(start, end)
	require.Len(t, split, 48)
	assert.Equal(t, start.Add(30*time.Minute), split[0])
	assert.Equal(t, end, split[len(split)-1])

	assert.Empty(t, BillingIntervals(end, end))
}

func TestNormalize(t *testing.T) {
	t.Run("full day prorates evenly", func(t *testing.T) {
		intervals, err := Normalize(offpeakRecords)
		require.NoError(t, err)
		require.Len(t, intervals, 48)
		for _, b := range intervals {
			assert.Equal(t, 10.0, b.Usage)
		}
		assert.Equal(t, date(2017, 4, 1, 0, 30), intervals[0].End)
		assert.Equal(t, date(2017, 4, 2, 0, 0), intervals[47].End)
	})

	t.Run("short readings are summed", func(t *testing.T) {
		intervals, err := Normalize(peakRecords[1:])
		require.NoError(t, err)
		require.Len(t, intervals, 3)

		assert.Equal(t, date(2017, 1, 3, 0, 30), intervals[0].End)
		assert.InDelta(t, 10, intervals[0].Usage, 1e-9)
		assert.Equal(t, date(2017, 1, 3, 1, 0), intervals[1].End)
		assert.InDelta(t, 9.9, intervals[1].Usage, 1e-9)
		assert.Equal(t, date(2017, 1, 3, 1, 30), intervals[2].End)
		assert.InDelta(t, 3.3, intervals[2].Usage, 1e-9)
	})

	t.Run("overlapping long and short readings", func(t *testing.T) {
		intervals, err := Normalize(peakRecords)
		require.NoError(t, err)
		// 48 from the full day plus 00:30, 01:00 and 01:30 on the next day
		require.Len(t, intervals, 51)
		for i := 1; i < len(intervals); i++ {
			assert.True(t, intervals[i].End.After(intervals[i-1].End), "intervals must be strictly increasing")
		}
	})

	t.Run("unsorted input", func(t *testing.T) {
		intervals, err := Normalize([]types.Reading{
			{Start: date(2017, 1, 3, 1, 0), End: date(2017, 1, 3, 1, 30), Usage: 2},
			{Start: date(2017, 1, 3, 0, 0), End: date(2017, 1, 3, 0, 30), Usage: 1},
		})
		require.NoError(t, err)
		require.Len(t, intervals, 2)
		assert.Equal(t, 1.0, intervals[0].Usage)
		assert.Equal(t, 2.0, intervals[1].Usage)
	})

	t.Run("unaligned long reading", func(t *testing.T) {
		// 45 minutes covers two interval ends and is spread linearly
		intervals, err := Normalize([]types.Reading{
			{Start: date(2017, 1, 3, 10, 0), End: date(2017, 1, 3, 10, 45), Usage: 3},
		})
		require.NoError(t, err)
		require.Len(t, intervals, 2)
		assert.Equal(t, date(2017, 1, 3, 10, 30), intervals[0].End)
		assert.InDelta(t, 2, intervals[0].Usage, 1e-9)
		assert.Equal(t, date(2017, 1, 3, 11, 0), intervals[1].End)
		assert.InDelta(t, 2, intervals[1].Usage, 1e-9)
	})

	t.Run("empty", func(t *testing.T) {
		intervals, err := Normalize(nil)
		require.NoError(t, err)
		assert.Empty(t, intervals)
	})

	t.Run("invalid readings", func(t *testing.T) {
		_, err := Normalize([]types.Reading{
			{Start: date(2017, 1, 3, 1, 0), End: date(2017, 1, 3, 1, 0), Usage: 1},
		})
		assert.ErrorIs(t, err, types.ErrInvalidInterval)

		_, err = Normalize([]types.Reading{
			{Start: date(2017, 1, 3, 0, 0), End: date(2017, 1, 3, 0, 30), Usage: 1},
			{Start: date(2017, 1, 3, 1, 0), End: date(2017, 1, 3, 1, 30), Usage: -1},
		})
		assert.ErrorIs(t, err, types.ErrInvalidInterval)
		assert.Contains(t, err.Error(), "reading 1")
	})
}
