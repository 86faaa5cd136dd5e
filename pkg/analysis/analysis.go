// Package analysis turns interval meter readings into daily and monthly
// time-of-use usage summaries.
//
// Readings are first normalized into 30 minute billing intervals, each
// interval is classified as peak, shoulder or off-peak from a types.TOURules
// and the results are summed per day and per month. Everything here works on
// in-memory values and keeps no state between calls.
package analysis

import (
	"slices"

	"cloud.google.com/go/civil"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// DailyUsage normalizes readings and returns the usage for every day they
// cover.
func DailyUsage(readings []types.Reading, rules types.TOURules, trackDemand bool) (map[civil.Date]types.Usage, error) {
	c, err := NewClassifier(rules)
	if err != nil {
		return nil, err
	}
	intervals, err := Normalize(readings)
	if err != nil {
		return nil, err
	}
	return AggregateDaily(intervals, c, trackDemand), nil
}

// MonthlyUsage normalizes readings and returns the usage for every month they
// cover.
func MonthlyUsage(readings []types.Reading, rules types.TOURules) (map[types.MonthKey]types.MonthUsage, error) {
	c, err := NewClassifier(rules)
	if err != nil {
		return nil, err
	}
	intervals, err := Normalize(readings)
	if err != nil {
		return nil, err
	}
	return AggregateMonthly(intervals, c), nil
}

func sortDailyUsage(days []types.DailyUsage) {
	slices.SortFunc(days, func(a, b types.DailyUsage) int {
		return a.Date.Compare(b.Date)
	})
}

func sortMonthSummaries(months []types.MonthSummary) {
	slices.SortFunc(months, func(a, b types.MonthSummary) int {
		switch {
		case a.Month.Before(b.Month):
			return -1
		case b.Month.Before(a.Month):
			return 1
		}
		return 0
	})
}
