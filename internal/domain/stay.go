package domain

import "time"

// StayNights expands a (check-in, check-out) pair into the ordered nights of
// the stay: every date in [checkIn, checkOut), ascending. Returns an empty
// slice and count 0 when checkOut is not after checkIn; that empty result is
// the one signal callers use to detect an invalid range. Dates are treated as
// naive calendar days: inputs are truncated to UTC midnight so the result is
// identical regardless of the wall-clock or zone they were parsed in.
func StayNights(checkIn, checkOut time.Time) ([]time.Time, int) {
	in := midnightUTC(checkIn)
	out := midnightUTC(checkOut)
	if !out.After(in) {
		return nil, 0
	}
	var nights []time.Time
	for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights, len(nights)
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
