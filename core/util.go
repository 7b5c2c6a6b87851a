package core

import (
	"math"
	"strings"
	"time"
)

// NowFunc returns the current time. mockable
var NowFunc = time.Now

// Now returns the current UTC time truncated to microseconds (Postgres precision).
func Now() time.Time {
	return NowFunc().UTC().Truncate(time.Microsecond)
}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Round rounds half away from zero to the nearest integer.
func Round(f float64) int {
	return int(math.Round(f))
}
