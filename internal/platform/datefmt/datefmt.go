// Package datefmt parses and renders the day-first date formats used at the
// clinic's input edges. All values are local wall-clock times.
package datefmt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout renders dates as dd/mm/yyyy.
	DateLayout = "02/01/2006"
	// DateTimeLayout renders timestamps as dd/mm/yyyy HH:MM.
	DateTimeLayout = "02/01/2006 15:04"

	// Parsing accepts single-digit days and months.
	dateParseLayout     = "2/1/2006"
	dateTimeParseLayout = "2/1/2006 15:04"
)

// ErrInvalidFormat is returned for text that is not a real date in the
// expected layout.
var ErrInvalidFormat = errors.New("invalid date format")

// ParseDate parses dd/mm/yyyy into local midnight of that day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateParseLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q, expected dd/mm/yyyy", ErrInvalidFormat, s)
	}
	return t, nil
}

// ParseDateTime parses dd/mm/yyyy HH:MM as a local timestamp.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	t, err := time.ParseInLocation(dateTimeParseLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q, expected dd/mm/yyyy HH:MM", ErrInvalidFormat, s)
	}
	return t, nil
}

// FormatDate renders t as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDateTime renders t as dd/mm/yyyy HH:MM.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}
