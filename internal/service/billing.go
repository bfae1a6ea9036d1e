package service

import (
	"time"

	"netclub/internal/apperr"
)

// DurationMinutes converts elapsed wall-clock time into billable minutes,
// rounding partial minutes up. A negative elapsed interval means the
// stored timestamps are corrupt and is surfaced as an internal error.
func DurationMinutes(start, end time.Time) (int64, error) {
	elapsed := end.Sub(start)
	if elapsed < 0 {
		return 0, apperr.Internal(apperr.CodeInvalidTimestamp, "session end precedes start", nil).
			With("start_time", start).
			With("end_time", end)
	}
	minutes := int64(elapsed / time.Minute)
	if elapsed%time.Minute != 0 {
		minutes++
	}
	return minutes, nil
}

// Fee computes the charge for a session: (minutes / 60) * hourly rate.
// No minimum charge, no cap; a zero rate yields a zero fee.
func Fee(durationMinutes int64, hourlyRate float64) float64 {
	return float64(durationMinutes) / 60 * hourlyRate
}
