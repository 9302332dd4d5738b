package clock

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Localize combines an event date ("2006-01-02"), a wall time ("15:04") and
// an IANA zone name into a concrete instant in that zone.
func Localize(date, wall, zone string) (time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown timezone %q: %w", zone, err)
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+wall, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q %q: %w", date, wall, err)
	}
	return t, nil
}

// ValidDate reports whether s is a well-formed event date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidWall reports whether s is a well-formed wall time.
func ValidWall(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

// ValidZone reports whether s names a loadable IANA timezone.
func ValidZone(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.LoadLocation(s)
	return err == nil
}

// Now formats the current instant for response timestamps.
func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
