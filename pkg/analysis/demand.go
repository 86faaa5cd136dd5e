package analysis

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

const (
	// PeakWindowHours is the length of the peak window used to turn peak
	// energy into an average demand.
	PeakWindowHours = 6.5

	// demandDays is how many of the highest demand days are averaged.
	demandDays = 4
)

// AverageDailyPeakDemand converts energy used in the peak window (kWh) into
// the average demand over that window (kW).
func AverageDailyPeakDemand(peakUsage float64) float64 {
	return peakUsage / PeakWindowHours
}

// AveragePeakDemand returns the mean of the average daily peak demand of the
// four days with the highest demand usage. Days with equal demand usage are
// taken in date order. A day's sample is its peak usage, or its shoulder usage
// when it had no peak usage. Zero days yields zero.
func AveragePeakDemand(days []types.DailyUsage) float64 {
	if len(days) == 0 {
		return 0
	}

	sorted := slices.Clone(days)
	slices.SortStableFunc(sorted, func(a, b types.DailyUsage) int {
		if c := cmp.Compare(b.Usage.Demand, a.Usage.Demand); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})

	samples := make([]float64, 0, demandDays)
	for _, day := range sorted[:min(demandDays, len(sorted))] {
		usage := day.Usage.Peak
		if usage == 0 {
			usage = day.Usage.Shoulder
		}
		samples = append(samples, AverageDailyPeakDemand(usage))
	}
	return stat.Mean(samples, nil)
}
