package analysis

import (
	"cloud.google.com/go/civil"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// usageAccumulator collects a day's usage before it is frozen into a
// types.Usage.
type usageAccumulator struct {
	peak     float64
	shoulder float64
	offpeak  float64
	total    float64
	demand   float64
}

func (a *usageAccumulator) add(period types.Period, usage float64) {
	switch period {
	case types.PeriodPeak:
		a.peak += usage
	case types.PeriodShoulder:
		a.shoulder += usage
	default:
		a.offpeak += usage
	}
	a.total += usage
}

func (a *usageAccumulator) usage() types.Usage {
	return types.Usage{
		Peak:     a.peak,
		Shoulder: a.shoulder,
		OffPeak:  a.offpeak,
		Total:    a.total,
		Demand:   a.demand,
	}
}

// intervalDay returns the day an interval belongs to. Interval timestamps are
// the end of the interval so the one ending at midnight is the last interval
// of the previous day.
func intervalDay(b types.BillingInterval) civil.Date {
	return civil.DateOf(b.Start())
}

// AggregateDaily sums interval usage into a Usage per day. When trackDemand is
// set, usage in the demand PEAK period is also summed into Usage.Demand.
func AggregateDaily(intervals []types.BillingInterval, c *Classifier, trackDemand bool) map[civil.Date]types.Usage {
	days := make(map[civil.Date]*usageAccumulator)
	for _, b := range intervals {
		day := intervalDay(b)
		acc, ok := days[day]
		if !ok {
			acc = &usageAccumulator{}
			days[day] = acc
		}

		period, demandPeriod := c.Classify(b.End)
		acc.add(period, b.Usage)
		if trackDemand && demandPeriod == types.PeriodPeak {
			acc.demand += b.Usage
		}
	}

	out := make(map[civil.Date]types.Usage, len(days))
	for day, acc := range days {
		out[day] = acc.usage()
	}
	return out
}
