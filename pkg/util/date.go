package util

import (
	"strconv"
	"time"
)

// ParseTime accepts YYYY-MM-DD, RFC3339, RFC3339Nano and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TrailingRange returns [today-lookback, today+1d) in whole UTC days.
func TrailingRange(now time.Time, lookback time.Duration) (time.Time, time.Time) {
	end := Day(now.UTC()).AddDate(0, 0, 1)
	return Day(end.Add(-lookback)), end
}
