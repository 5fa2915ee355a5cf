package util

import "time"

// ISOLayout is the timestamp format used in notes and audit entries.
const ISOLayout = time.RFC3339

// Clock abstracts the wall clock so runs can be pinned in tests.
type Clock func() time.Time

// SystemClock reads the UTC wall clock.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// ISONow formats the current time of clock in RFC 3339.
func ISONow(clock Clock) string {
	if clock == nil {
		clock = SystemClock
	}
	return clock().Format(ISOLayout)
}

// ISO formats t in RFC 3339.
func ISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// Hours converts a duration expressed in fractional hours.
func Hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// Days converts whole days into a duration.
func Days(d int) time.Duration {
	return time.Duration(d) * 24 * time.Hour
}
