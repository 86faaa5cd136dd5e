package analysis

import (
	"cloud.google.com/go/civil"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// AggregateMonthly sums daily usage into a MonthUsage for every month touched
// by the intervals. Days is the calendar length of the month and Demand is
// the average peak demand of the month's top demand days.
func AggregateMonthly(intervals []types.BillingInterval, c *Classifier) map[types.MonthKey]types.MonthUsage {
	months := make(map[types.MonthKey][]types.DailyUsage)
	for _, b := range intervals {
		month := types.MonthOf(intervalDay(b))
		if _, ok := months[month]; !ok {
			months[month] = nil
		}
	}

	for _, day := range SortedDays(AggregateDaily(intervals, c, true)) {
		month := types.MonthOf(day.Date)
		months[month] = append(months[month], day)
	}

	out := make(map[types.MonthKey]types.MonthUsage, len(months))
	for month, days := range months {
		summary := types.MonthUsage{
			Days:   month.Days(),
			Demand: AveragePeakDemand(days),
		}
		for _, day := range days {
			summary.Peak += day.Usage.Peak
			summary.Shoulder += day.Usage.Shoulder
			summary.OffPeak += day.Usage.OffPeak
			summary.Total += day.Usage.Total
		}
		out[month] = summary
	}
	return out
}

// SortedDays flattens a daily usage map into a slice ordered by date.
func SortedDays(daily map[civil.Date]types.Usage) []types.DailyUsage {
	days := make([]types.DailyUsage, 0, len(daily))
	for date, usage := range daily {
		days = append(days, types.DailyUsage{Date: date, Usage: usage})
	}
	sortDailyUsage(days)
	return days
}

// SortedMonths flattens a monthly usage map into summaries ordered by month.
func SortedMonths(monthly map[types.MonthKey]types.MonthUsage) []types.MonthSummary {
	months := make([]types.MonthSummary, 0, len(monthly))
	for month, usage := range monthly {
		months = append(months, types.MonthSummary{Month: month, Usage: usage})
	}
	sortMonthSummaries(months)
	return months
}
