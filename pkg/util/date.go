package util

import "time"

// DayLayout is the calendar date form used across the service.
const DayLayout = "2006-01-02"

// ParseDay parses a calendar date in 2006-01-02 form. Returns (t, true) if it worked.
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDayDefault parses a calendar date or returns default if empty/invalid.
func ParseDayDefault(s string, def time.Time) time.Time {
	if t, ok := ParseDay(s); ok {
		return t
	}
	return def
}

// DayString formats a time as a calendar date.
func DayString(t time.Time) string {
	return t.Format(DayLayout)
}

// Day truncates a time to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysAgo returns midnight UTC n days before now.
func DaysAgo(now time.Time, n int) time.Time {
	return Day(now).AddDate(0, 0, -n)
}
