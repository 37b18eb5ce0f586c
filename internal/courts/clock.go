package courts

import (
	"fmt"
	"time"
)

// ParseClock converts a zero-padded "HH:MM" string to minutes from midnight.
// time.Parse alone would accept "9:00", so the shape is checked first; rule
// and closure values loaded from the database bypass the binding validator
// and rely on this check.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid clock time %q: want HH:MM", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes from midnight back to "HH:MM"
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// intervalsOverlap reports whether [aStart,aEnd) and [bStart,bEnd)
// intersect, in minutes from midnight
func intervalsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
