package analysis

import (
	"time"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

var everyDay = []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}

var everyMonth = []time.Month{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

// aglRules has a weekday peak inside an every-day shoulder.
var aglRules = types.TOURules{
	Peak: &types.TOUWindow{
		Months: everyMonth,
		Days:   []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Start:  types.ClockTime{Hour: 16},
		End:    types.ClockTime{Hour: 20},
	},
	Shoulder: &types.TOUWindow{
		Months: everyMonth,
		Days:   everyDay,
		Start:  types.ClockTime{Hour: 7},
		End:    types.ClockTime{Hour: 22},
	},
}

// ergonRules has a summer-only peak and no shoulder.
var ergonRules = types.TOURules{
	Peak: &types.TOUWindow{
		Months: []time.Month{time.January, time.February, time.December},
		Days:   everyDay,
		Start:  types.ClockTime{Hour: 15},
		End:    types.ClockTime{Hour: 21, Minute: 30},
	},
}

func date(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

// peakRecords is a full Monday followed by a few short readings early on the
// Tuesday.
var peakRecords = []types.Reading{
	{Start: date(2017, 1, 2, 0, 0), End: date(2017, 1, 3, 0, 0), Usage: 480},
	{Start: date(2017, 1, 3, 0, 0), End: date(2017, 1, 3, 0, 30), Usage: 10},
	{Start: date(2017, 1, 3, 0, 30), End: date(2017, 1, 3, 0, 40), Usage: 3.3},
	{Start: date(2017, 1, 3, 0, 40), End: date(2017, 1, 3, 0, 50), Usage: 3.3},
	{Start: date(2017, 1, 3, 0, 50), End: date(2017, 1, 3, 1, 0), Usage: 3.3},
	{Start: date(2017, 1, 3, 1, 0), End: date(2017, 1, 3, 1, 10), Usage: 3.3},
}

// offpeakRecords is a full Saturday outside of Ergon's peak season.
var offpeakRecords = []types.Reading{
	{Start: date(2017, 4, 1, 0, 0), End: date(2017, 4, 2, 0, 0), Usage: 480},
}
