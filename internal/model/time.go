package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// Time is a clock time within a train's schedule. Hour may be 24 or
// greater: a train's arrival_times/departure_times entries record the
// elapsed hour-of-day-plus-day-shift from the train's first departure, so
// an hour of 26 means "2am, one day after the train leaves its first
// station". Time is never shown
// to a user directly; only the normalized TimePoint derived from it is.
type Time struct {
	Hour   int
	Minute int
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// TotalMinutes returns t expressed as minutes since hour 0.
func (t Time) TotalMinutes() int {
	return t.Hour*60 + t.Minute
}

// AddMinutes returns the Time n minutes after t.
func (t Time) AddMinutes(n int) Time {
	total := t.TotalMinutes() + n
	return Time{Hour: total / 60, Minute: total % 60}
}

// ParseTime parses the protocol's "HH:MM" schedule time.
func ParseTime(s string) (Time, error) {
	var tm Time
	if _, err := fmt.Sscanf(s, "%02d:%02d", &tm.Hour, &tm.Minute); err != nil {
		return Time{}, errors.Wrapf(err, "parse time %q", s)
	}
	return tm, nil
}
