package domain

import "time"

// Time-window classification for events. All comparisons operate on absolute
// UTC instants; local-time conversion is a presentation concern and never
// happens here.

// IsUpcoming reports whether the event occurs at or after now.
// The exact boundary date == now counts as upcoming.
func IsUpcoming(e *Event, now time.Time) bool {
	return !e.Date.Before(now)
}

// IsPast reports whether the event occurred strictly before now.
func IsPast(e *Event, now time.Time) bool {
	return e.Date.Before(now)
}

// MonthWindow returns the half-open interval [start, end) covering the given
// month in UTC. Year must have four digits and month must be 1-12; anything
// else returns ErrInvalidPeriod.
func MonthWindow(year, month int) (start, end time.Time, err error) {
	if year < 1000 || year > 9999 || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end, nil
}

// InMonth reports whether the event falls inside the given month.
func InMonth(e *Event, year, month int) (bool, error) {
	start, end, err := MonthWindow(year, month)
	if err != nil {
		return false, err
	}
	return !e.Date.Before(start) && e.Date.Before(end), nil
}
