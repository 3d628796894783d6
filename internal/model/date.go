// Package model holds the plain value types shared across the booking
// engine: calendar dates and times, trains, seat maps, users, orders and
// tickets. Nothing here touches disk or the command protocol; it is the
// vocabulary the storage, catalog, seatmap, orders, users, booking and
// planner packages are built from.
package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// daysInMonth mirrors a generic (non-leap) Gregorian calendar: the engine
// only ever deals with a single sale season, never a real year boundary,
// so February is fixed at 28 days.
var daysInMonth = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Date is a month/day pair within the engine's single implicit year.
type Date struct {
	Month int
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%02d-%02d", d.Month, d.Day)
}

// Less reports whether d sorts before other.
func (d Date) Less(other Date) bool {
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Equal reports whether d and other name the same day.
func (d Date) Equal(other Date) bool {
	return d.Month == other.Month && d.Day == other.Day
}

// AddDays returns the date n days after d, wrapping across month
// boundaries (and back to January after December).
func (d Date) AddDays(n int) Date {
	day := d.Day + n
	month := d.Month
	for day > daysInMonth[month] {
		day -= daysInMonth[month]
		month++
		if month > 12 {
			month = 1
		}
	}
	for day < 1 {
		month--
		if month < 1 {
			month = 12
		}
		day += daysInMonth[month]
	}
	return Date{Month: month, Day: day}
}

// SubDays returns the date n days before d.
func (d Date) SubDays(n int) Date {
	return d.AddDays(-n)
}

// DiffDays returns the number of days from other to d (positive if d is
// later than other), summing whole months in between.
func (d Date) DiffDays(other Date) int {
	if d.Month == other.Month {
		return d.Day - other.Day
	}
	sign := 1
	a, b := other, d
	if d.Less(other) {
		sign = -1
		a, b = d, other
	}
	days := 0
	for m := a.Month; m < b.Month; m++ {
		days += daysInMonth[m]
	}
	days += b.Day - a.Day
	return sign * days
}

// ParseDate parses the protocol's "mm-dd" date representation.
func ParseDate(s string) (Date, error) {
	var d Date
	if _, err := fmt.Sscanf(s, "%02d-%02d", &d.Month, &d.Day); err != nil {
		return Date{}, errors.Wrapf(err, "parse date %q", s)
	}
	return d, nil
}
