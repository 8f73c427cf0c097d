package clinic

import (
	"time"

	"github.com/ehr/clinic/internal/platform/textnorm"
)

// weekdayNames is indexed Monday-first.
var weekdayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// weekdayTokens maps folded input tokens to days. Operators type Spanish day
// names as often as English ones.
var weekdayTokens = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
	"domingo":   time.Sunday,
}

// ParseWeekday resolves a free-text day name. Case, surrounding space and
// accents are ignored.
func ParseWeekday(s string) (time.Weekday, bool) {
	d, ok := weekdayTokens[textnorm.Fold(s)]
	return d, ok
}

// DayName returns the canonical token for d.
func DayName(d time.Weekday) string {
	return weekdayNames[(int(d)+6)%7]
}

// WeekdayName returns the canonical token of the local weekday of t.
func WeekdayName(t time.Time) string {
	return DayName(t.Weekday())
}

// CanonicalDays lists the canonical tokens Monday through Sunday.
func CanonicalDays() []string {
	out := make([]string, len(weekdayNames))
	copy(out, weekdayNames[:])
	return out
}
