package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the ISO calendar date format used on the wire and in storage.
const Layout = "2006-01-02"

var (
	ErrInvalidDate  = errors.New("daterange: invalid calendar date")
	ErrInvalidRange = errors.New("daterange: end date must not be before start date")
)

// Date is a calendar day. It carries no time-of-day and no location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes overflowing values the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf drops the time-of-day of t, keeping the calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(value string) (Date, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return DateOf(t), nil
}

// MustParseDate panics on malformed input; meant for fixtures and tests.
func MustParseDate(value string) Date {
	d, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(Layout)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Compare(other Date) int {
	return d.Time().Compare(other.Time())
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetweenInclusive counts the calendar days from start to end, both
// included. The result is never below 1.
func DaysBetweenInclusive(start, end Date) int {
	days := int(end.dayNumber()-start.dayNumber()) + 1
	if days < 1 {
		return 1
	}
	return days
}

// dayNumber counts days since the Unix epoch. Unix seconds are used instead
// of time.Duration, which overflows past roughly 292 years.
func (d Date) dayNumber() int64 {
	return d.Time().Unix() / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60

// EnumerateDates lists every day from start to end inclusive in ascending
// order. An inverted range yields no dates.
func EnumerateDates(start, end Date) []Date {
	if end.Before(start) {
		return nil
	}
	out := make([]Date, 0, DaysBetweenInclusive(start, end))
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// IsPast reports whether d lies strictly before the calendar day containing now.
func IsPast(d Date, now time.Time) bool {
	return d.Before(DateOf(now))
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Range is an inclusive span of calendar days.
type Range struct {
	Start Date
	End   Date
}

func NewRange(start, end Date) (Range, error) {
	r := Range{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Month spans the whole calendar month.
func Month(year int, month time.Month) Range {
	start := NewDate(year, month, 1)
	return Range{Start: start, End: start.AddDays(DaysInMonth(year, month) - 1)}
}

// Spanning returns the smallest range covering all dates.
func Spanning(dates []Date) (Range, bool) {
	if len(dates) == 0 {
		return Range{}, false
	}
	r := Range{Start: dates[0], End: dates[0]}
	for _, d := range dates[1:] {
		if d.Before(r.Start) {
			r.Start = d
		}
		if d.After(r.End) {
			r.End = d
		}
	}
	return r, true
}

func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrInvalidDate
	}
	if r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

func (r Range) Days() int {
	return DaysBetweenInclusive(r.Start, r.End)
}

func (r Range) Dates() []Date {
	return EnumerateDates(r.Start, r.End)
}

func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r Range) Overlaps(other Range) bool {
	return !r.End.Before(other.Start) && !other.End.Before(r.Start)
}

func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
