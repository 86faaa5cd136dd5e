package types

import (
	"errors"
	"fmt"
	"time"
)

// BillingIntervalLength is the length of the canonical billing interval.
const BillingIntervalLength = 30 * time.Minute

// ErrInvalidInterval is returned for readings that do not describe a positive
// span of non-negative usage.
var ErrInvalidInterval = errors.New("invalid interval")

// Reading is the energy consumed between Start and End, usually in kWh.
// Timestamps are local wall-clock values.
type Reading struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Usage float64   `json:"usage"`
}

// Validate returns an error wrapping ErrInvalidInterval when the reading is
// malformed.
func (r Reading) Validate() error {
	if !r.End.After(r.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidInterval, r.End.Format(time.DateTime), r.Start.Format(time.DateTime))
	}
	if r.Usage < 0 {
		return fmt.Errorf("%w: negative usage %f at %s", ErrInvalidInterval, r.Usage, r.Start.Format(time.DateTime))
	}
	return nil
}

// BillingInterval is the usage for the 30 minutes ending at End.
type BillingInterval struct {
	End   time.Time `json:"end"`
	Usage float64   `json:"usage"`
}

// Start returns the beginning of the interval.
func (b BillingInterval) Start() time.Time {
	return b.End.Add(-BillingIntervalLength)
}
