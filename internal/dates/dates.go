// Package dates is the single place the application parses and formats
// calendar dates.
//
// Two fixed forms exist:
//   - the machine form "2006-01-02" (ISO 8601 calendar date), used for
//     everything persisted in the event tree
//   - the human form "02/01/2006", used only for display
//
// PARSING POLICY:
// Stored dates can be malformed — legacy rows, hand-edited tree data.
// ParseISO therefore never returns an error and never panics; it reports
// validity with a bool, and callers that render strings fall back to the
// raw value annotated as invalid (DisplayOrRaw). A bad date must never
// cause a record to crash the caller or silently disappear.
package dates

import (
	"fmt"
	"time"
)

const (
	isoLayout     = "2006-01-02"
	displayLayout = "02/01/2006"
)

// Date is a pure calendar date — no time of day, no timezone.
//
// WHY NOT time.Time?
// time.Time drags a wall clock and a location along with it, which makes
// equality checks subtle (two "same days" in different zones compare
// unequal). A plain value struct is comparable with ==, usable as a map
// key for grouping, and impossible to get wrong.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// IsZero reports whether d is the zero Date, used as the "minimum
// possible date" sentinel for records whose stored date failed to parse.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// ISO renders the strict machine-readable form, e.g. "2024-05-03".
// For any d produced by ParseISO, ParseISO(d.ISO()) round-trips exactly.
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Display renders the human-readable form, e.g. "03/05/2024".
func (d Date) Display() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// Weekday returns the day of the week d falls on.
func (d Date) Weekday() time.Weekday {
	return d.time().Weekday()
}

// AddDays returns d shifted by n calendar days (n may be negative).
func (d Date) AddDays(n int) Date {
	return FromTime(d.time().AddDate(0, 0, n))
}

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// FromTime truncates a time.Time to its calendar date.
func FromTime(t time.Time) Date {
	y, m, day := t.Date()
	return Date{Year: y, Month: m, Day: day}
}

// Today returns the current local calendar date.
func Today() Date {
	return FromTime(time.Now())
}

// ParseISO parses a strict "YYYY-MM-DD" string.
//
// Anything else — empty input, wrong separators, impossible month/day
// ("2024-02-30"), extra characters — yields ok == false. The time package
// does the range checking; the round-trip comparison below rejects inputs
// that time.Parse tolerates but that are not in the canonical zero-padded
// form (e.g. "2024-5-3").
func ParseISO(s string) (Date, bool) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return Date{}, false
	}
	d := FromTime(t)
	if d.ISO() != s {
		return Date{}, false
	}
	return d, true
}

// DisplayOrRaw formats a stored date string for display.
//
// A parseable date renders in the human form. Anything else renders as the
// raw stored string annotated as invalid — the record stays visible rather
// than being dropped or crashing the renderer.
func DisplayOrRaw(raw string) string {
	if d, ok := ParseISO(raw); ok {
		return d.Display()
	}
	return raw + " (invalid format)"
}
