package model

import "fmt"

// TimePoint is a calendar-absolute instant: a Date plus an Hour always in
// [0,24). Constructing one from a Date and an out-of-range Time (as
// produced by a train's schedule arithmetic) normalizes the overflow into
// the date, matching the original engine's TimePoint constructor, but
// unlike it this one also wraps the month correctly when the day shift
// crosses a year boundary (see DESIGN.md).
type TimePoint struct {
	Date Date
	Time Time
}

// NewTimePoint builds a canonical TimePoint from a base date and a
// schedule time whose hour may be >= 24.
func NewTimePoint(date Date, t Time) TimePoint {
	dayShift := t.Hour / 24
	hour := t.Hour % 24
	return TimePoint{Date: date.AddDays(dayShift), Time: Time{Hour: hour, Minute: t.Minute}}
}

func (tp TimePoint) String() string {
	return fmt.Sprintf("%s %s", tp.Date, tp.Time)
}

// AddMinutes returns the TimePoint n minutes after tp.
func (tp TimePoint) AddMinutes(n int) TimePoint {
	total := tp.Time.TotalMinutes() + n
	days := total / (24 * 60)
	rem := total % (24 * 60)
	if rem < 0 {
		rem += 24 * 60
		days--
	}
	return TimePoint{
		Date: tp.Date.AddDays(days),
		Time: Time{Hour: rem / 60, Minute: rem % 60},
	}
}

// SubMinutes returns the number of minutes from other to tp (tp - other).
func (tp TimePoint) SubMinutes(other TimePoint) int {
	days := tp.Date.DiffDays(other.Date)
	return days*24*60 + tp.Time.TotalMinutes() - other.Time.TotalMinutes()
}

// Less reports whether tp is chronologically before other.
func (tp TimePoint) Less(other TimePoint) bool {
	return tp.SubMinutes(other) < 0
}
