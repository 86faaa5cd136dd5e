package types

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfiguration is returned when a rule set contains values that can
// never describe a real time-of-use window.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Period is the time-of-use bucket an interval is billed in.
type Period string

const (
	PeriodPeak     Period = "PEAK"
	PeriodShoulder Period = "SHOULDER"
	PeriodOffPeak  Period = "OFFPEAK"
)

// ClockTime is a time of day without a date. It marshals as "15:04".
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses a "15:04" time of day. "24:00" is accepted as the end
// of the day.
func ParseClockTime(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ClockTime{}, fmt.Errorf("%w: clock time %q must be HH:MM", ErrInvalidConfiguration, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: clock time %q has invalid hour: %v", ErrInvalidConfiguration, s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: clock time %q has invalid minute: %v", ErrInvalidConfiguration, s, err)
	}
	c := ClockTime{Hour: h, Minute: m}
	if err := c.Validate(); err != nil {
		return ClockTime{}, err
	}
	return c, nil
}

// Validate checks that c is a real time of day.
func (c ClockTime) Validate() error {
	if c.Hour < 0 || c.Hour > 24 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("%w: clock time %02d:%02d out of range", ErrInvalidConfiguration, c.Hour, c.Minute)
	}
	if c.Hour == 24 && c.Minute != 0 {
		return fmt.Errorf("%w: clock time %02d:%02d is past the end of the day", ErrInvalidConfiguration, c.Hour, c.Minute)
	}
	return nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MarshalText implements encoding.TextMarshaler.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ClockTime) UnmarshalText(text []byte) error {
	parsed, err := ParseClockTime(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// TOUWindow defines the calendar rules for one time-of-use period, e.g. the
// weekday peak between 16:00 and 20:00 in every month.
type TOUWindow struct {
	Months []time.Month   `json:"months" yaml:"months"`
	Days   []time.Weekday `json:"days" yaml:"days"`
	Start  ClockTime      `json:"start" yaml:"start"`
	End    ClockTime      `json:"end" yaml:"end"`
}

// InTimeWindow reports whether the time of day of t falls in (Start, End].
// Months and days are not considered.
func (w *TOUWindow) InTimeWindow(t time.Time) bool {
	if w == nil {
		return false
	}
	// seconds only matter for unaligned timestamps
	tod := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return tod > w.Start.minutes()*60 && tod <= w.End.minutes()*60
}

// Contains checks if t is within the window. An empty Months or Days list
// never matches.
func (w *TOUWindow) Contains(t time.Time) bool {
	if w == nil {
		return false
	}
	if !slices.Contains(w.Months, t.Month()) {
		return false
	}
	if !slices.Contains(w.Days, t.Weekday()) {
		return false
	}
	return w.InTimeWindow(t)
}

// Validate checks the window for structurally impossible values.
func (w *TOUWindow) Validate() error {
	if w == nil {
		return nil
	}
	if err := w.Start.Validate(); err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	if err := w.End.Validate(); err != nil {
		return fmt.Errorf("invalid end: %w", err)
	}
	for _, m := range w.Months {
		if m < time.January || m > time.December {
			return fmt.Errorf("%w: month %d out of range", ErrInvalidConfiguration, m)
		}
	}
	for _, d := range w.Days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: day of week %d out of range", ErrInvalidConfiguration, d)
		}
	}
	return nil
}

// TOURules is the peak and shoulder configuration for a tariff. A nil window
// is unconfigured and never matches.
type TOURules struct {
	Peak     *TOUWindow `json:"peak,omitempty" yaml:"peak,omitempty"`
	Shoulder *TOUWindow `json:"shoulder,omitempty" yaml:"shoulder,omitempty"`
}

// Validate checks both windows.
func (r TOURules) Validate() error {
	if err := r.Peak.Validate(); err != nil {
		return fmt.Errorf("peak window: %w", err)
	}
	if err := r.Shoulder.Validate(); err != nil {
		return fmt.Errorf("shoulder window: %w", err)
	}
	return nil
}

// IsPeakSeason reports whether the peak window applies to any day of month m.
func (r TOURules) IsPeakSeason(m time.Month) bool {
	return r.Peak != nil && slices.Contains(r.Peak.Months, m)
}
