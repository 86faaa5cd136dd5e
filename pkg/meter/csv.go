// Package meter reads and writes interval meter readings as CSV.
package meter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// ErrMissingColumns is returned when a header does not name the start, end
// and usage columns.
var ErrMissingColumns = errors.New("missing columns")

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

const writeLayout = "2006-01-02 15:04:05"

type columns struct {
	start, end, usage int
}

func (c columns) max() int {
	return max(c.start, c.end, c.usage)
}

// parseHeader finds the columns named in a header row. ok is false when the
// row looks like data instead.
func parseHeader(record []string) (cols columns, ok bool, err error) {
	if len(record) >= 3 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64); err == nil {
			return columns{0, 1, 2}, false, nil
		}
	}

	cols = columns{-1, -1, -1}
	for i, col := range record {
		name := strings.ToLower(strings.TrimSpace(col))
		switch {
		case strings.Contains(name, "start"):
			cols.start = i
		case strings.Contains(name, "end"):
			cols.end = i
		case strings.Contains(name, "usage"), strings.Contains(name, "kwh"):
			cols.usage = i
		}
	}
	if cols.start == -1 || cols.end == -1 || cols.usage == -1 {
		return cols, true, fmt.Errorf("%w: header must name start, end and usage", ErrMissingColumns)
	}
	return cols, true, nil
}

// ParseTime parses a reading timestamp. Timestamps without a zone are in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ReadCSV reads start,end,usage rows. A header row is optional; when present
// the columns are found by name. Every returned reading has been validated.
func ReadCSV(r io.Reader, loc *time.Location) ([]types.Reading, error) {
	if loc == nil {
		loc = time.UTC
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		readings []types.Reading
		cols     columns
		line     int
		first    = true
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line, _ = reader.FieldPos(0)

		if first {
			first = false
			var header bool
			cols, header, err = parseHeader(record)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if header {
				continue
			}
		}

		if len(record) <= cols.max() {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, cols.max()+1, len(record))
		}
		start, err := ParseTime(record[cols.start], loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: start: %w", line, err)
		}
		end, err := ParseTime(record[cols.end], loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: end: %w", line, err)
		}
		usage, err := strconv.ParseFloat(strings.TrimSpace(record[cols.usage]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: usage: %w", line, err)
		}

		reading := types.Reading{Start: start, End: end, Usage: usage}
		if err := reading.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

// WriteCSV writes readings with a header row in the layout ReadCSV reads.
// Timestamps are written in loc.
func WriteCSV(w io.Writer, readings []types.Reading, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"start", "end", "usage"}); err != nil {
		return err
	}
	for _, r := range readings {
		if err := writer.Write([]string{
			r.Start.In(loc).Format(writeLayout),
			r.End.In(loc).Format(writeLayout),
			strconv.FormatFloat(r.Usage, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
