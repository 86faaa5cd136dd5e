package analysis

import (
	"fmt"
	"slices"
	"time"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// BillingEnd returns the 30 minute boundary that ends the billing interval
// containing t. Times on the hour are unchanged, times in the first half of
// the hour round up to :30 and times in the second half round up to the next
// hour, carrying into the next day when needed. Seconds are discarded.
func BillingEnd(t time.Time) time.Time {
	switch m := t.Minute(); {
	case m == 0:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case m > 30:
		// time.Date normalizes hour 24 into the following day
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 30, 0, 0, t.Location())
	}
}

// BillingIntervals returns every interval end in (start, end]. Both start and
// end are expected to already be aligned with BillingEnd.
func BillingIntervals(start, end time.Time) []time.Time {
	var ends []time.Time
	for curr := start.Add(types.BillingIntervalLength); !curr.After(end); curr = curr.Add(types.BillingIntervalLength) {
		ends = append(ends, curr)
	}
	return ends
}

// Normalize splits and merges readings into 30 minute billing intervals.
// Readings up to 30 minutes long are assigned to the interval they end in.
// Longer readings are spread evenly across every interval they cover. Usage
// landing on the same interval is summed and the result is sorted by End.
func Normalize(readings []types.Reading) ([]types.BillingInterval, error) {
	intervals := make(map[int64]*types.BillingInterval)
	add := func(end time.Time, usage float64) {
		key := end.Unix()
		if b, ok := intervals[key]; ok {
			b.Usage += usage
			return
		}
		intervals[key] = &types.BillingInterval{End: end, Usage: usage}
	}

	for i, r := range readings {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("reading %d: %w", i, err)
		}
		// whole minutes, matching how meter data is recorded
		minutes := int(r.End.Sub(r.Start) / time.Minute)
		if minutes <= 30 {
			add(BillingEnd(r.End), r.Usage)
			continue
		}

		avg := r.Usage / (float64(minutes) / 30)
		for _, end := range BillingIntervals(BillingEnd(r.Start), BillingEnd(r.End)) {
			add(end, avg)
		}
	}

	out := make([]types.BillingInterval, 0, len(intervals))
	for _, b := range intervals {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b types.BillingInterval) int {
		return a.End.Compare(b.End)
	})
	return out, nil
}
