package timeutil

import (
	"time"

	"github.com/pkg/errors"
)

// Location resolves an IANA timezone identifier, falling back to UTC when the
// identifier is empty or unknown. The error reports the fallback; callers that
// can tolerate it log and keep the returned location.
func Location(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC, errors.Wrapf(err, "unknown timezone %q, using UTC", tz)
	}
	return loc, nil
}

// ToUTC reinterprets the wall-clock fields of t in loc and converts to UTC.
// Used for values that carry local clock time without zone information.
func ToUTC(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc).UTC()
}

// ToLocal converts a UTC instant to the wall clock of loc.
func ToLocal(t time.Time, loc *time.Location) time.Time {
	return t.In(loc)
}
