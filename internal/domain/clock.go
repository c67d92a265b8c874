package domain

import "time"

// Clock yields the current time. Stores accept one so tests can pin timestamps.
type Clock func() time.Time

// SystemClock returns wall time in UTC, truncated to the microsecond
// precision Postgres stores.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
