package clinic

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ehr/clinic/internal/platform/textnorm"
)

// Specialty is a named medical service offered on a fixed set of weekdays.
// It is immutable once built.
type Specialty struct {
	name string
	days []time.Weekday
}

// NewSpecialty validates name and days. Day tokens are normalized and
// repeated days collapse into one.
func NewSpecialty(name string, days []string) (*Specialty, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("specialty name must not be blank")
	}
	if len(days) == 0 {
		return nil, invalidf("specialty %s needs at least one weekday", name)
	}

	s := &Specialty{name: name, days: make([]time.Weekday, 0, len(days))}
	for _, raw := range days {
		d, ok := ParseWeekday(raw)
		if !ok {
			return nil, invalidf("unknown weekday %q, valid days are %s", raw, strings.Join(weekdayNames[:], ", "))
		}
		if !slices.Contains(s.days, d) {
			s.days = append(s.days, d)
		}
	}
	return s, nil
}

func (s *Specialty) Name() string { return s.name }

// Days returns the canonical weekday tokens in the order they were given.
func (s *Specialty) Days() []string {
	out := make([]string, len(s.days))
	for i, d := range s.days {
		out[i] = DayName(d)
	}
	return out
}

// OfferedOn reports whether the specialty is offered on the named day.
// Unknown day names are never offered.
func (s *Specialty) OfferedOn(day string) bool {
	d, ok := ParseWeekday(day)
	return ok && s.OfferedOnWeekday(d)
}

func (s *Specialty) OfferedOnWeekday(d time.Weekday) bool {
	return slices.Contains(s.days, d)
}

// SameName compares specialty names ignoring case, accents and surrounding
// space, so "Pediatría" and "pediatria" are the same specialty.
func (s *Specialty) SameName(name string) bool {
	return textnorm.Equal(s.name, name)
}

func (s *Specialty) String() string {
	return fmt.Sprintf("%s (days: %s)", s.name, strings.Join(s.Days(), ", "))
}
