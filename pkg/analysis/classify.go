package analysis

import (
	"fmt"
	"time"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// Classifier assigns billing intervals to time-of-use periods using a
// validated rule set. It holds no mutable state.
type Classifier struct {
	rules types.TOURules
}

// NewClassifier validates rules and returns a Classifier for them.
func NewClassifier(rules types.TOURules) (*Classifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tou rules: %w", err)
	}
	return &Classifier{rules: rules}, nil
}

// Rules returns the rule set the classifier was built with.
func (c *Classifier) Rules() types.TOURules {
	return c.rules
}

// Classify returns the billing period for the instant t and, separately, the
// demand period.
//
// Peak takes precedence over shoulder; anything else is off-peak. The demand
// period only looks at the peak time of day, ignoring months and days, and is
// OFFPEAK inside that window and PEAK outside it.
func (c *Classifier) Classify(t time.Time) (period types.Period, demand types.Period) {
	switch {
	case c.rules.Peak.Contains(t):
		period = types.PeriodPeak
	case c.rules.Shoulder.Contains(t):
		period = types.PeriodShoulder
	default:
		period = types.PeriodOffPeak
	}

	if c.rules.Peak.InTimeWindow(t) {
		demand = types.PeriodOffPeak
	} else {
		demand = types.PeriodPeak
	}
	return period, demand
}

// Classify is a shorthand for classifying a single instant. Rules are not
// validated.
func Classify(t time.Time, rules types.TOURules) (types.Period, types.Period) {
	return (&Classifier{rules: rules}).Classify(t)
}
