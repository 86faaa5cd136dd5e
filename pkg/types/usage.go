package types

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Usage is the energy used in a single day split by time-of-use period.
type Usage struct {
	Peak     float64 `json:"peak"`
	Shoulder float64 `json:"shoulder"`
	OffPeak  float64 `json:"offpeak"`
	Total    float64 `json:"total"`

	// Demand is the usage counted towards chargeable demand for the day. It is
	// only populated when demand tracking was requested.
	Demand float64 `json:"demand,omitempty"`
}

// DailyUsage pairs a day with its usage.
type DailyUsage struct {
	Date  civil.Date `json:"date"`
	Usage Usage      `json:"usage"`
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing d.
func MonthOf(d civil.Date) MonthKey {
	return MonthKey{Year: d.Year, Month: d.Month}
}

// Days returns the number of days in the calendar month.
func (k MonthKey) Days() int {
	// day 0 of the following month is the last day of this one
	return time.Date(k.Year, k.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Before reports whether k is earlier than other.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// Next returns the following month.
func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// ParseMonthKey parses a "2006-01" month.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

// MarshalText implements encoding.TextMarshaler so MonthKey can be used as a
// JSON object key.
func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *MonthKey) UnmarshalText(text []byte) error {
	parsed, err := ParseMonthKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MonthUsage is the usage for a calendar month. Days is the length of the
// month, not the number of days with readings. Demand is in kW.
type MonthUsage struct {
	Days     int     `json:"days"`
	Peak     float64 `json:"peak"`
	Shoulder float64 `json:"shoulder"`
	OffPeak  float64 `json:"offpeak"`
	Total    float64 `json:"total"`
	Demand   float64 `json:"demand"`
}

// MonthSummary pairs a month with its usage and, when a tariff was applied,
// the bill for it.
type MonthSummary struct {
	Month MonthKey   `json:"month"`
	Usage MonthUsage `json:"usage"`
	Bill  *Bill      `json:"bill,omitempty"`
}
