package availability

import (
	"context"
	"sort"
	"time"

	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
)

type DayStatus string

const (
	StatusAvailable DayStatus = "available"
	StatusBlocked   DayStatus = "blocked"
	StatusRented    DayStatus = "rented"
)

// BlockedDate marks one calendar day a car is withdrawn by the agency.
// It is unique per car and date.
type BlockedDate struct {
	CarID     cars.CarID
	Date      daterange.Date
	CreatedAt time.Time
}

type Repository interface {
	// ListBlocked returns the car's blocked dates inside window, ascending.
	ListBlocked(ctx context.Context, carID cars.CarID, window daterange.Range) ([]BlockedDate, error)
	// AddBlocked inserts the dates, ignoring ones already present.
	AddBlocked(ctx context.Context, carID cars.CarID, dates []daterange.Date, now time.Time) error
	// RemoveBlocked deletes the dates, ignoring ones not present.
	RemoveBlocked(ctx context.Context, carID cars.CarID, dates []daterange.Date) error
	// RemoveAllForCar drops every blocked date of a deleted car.
	RemoveAllForCar(ctx context.Context, carID cars.CarID) error
}

// Occupant is anything that may hold a car for a span of days, in
// practice a rental.
type Occupant interface {
	Period() daterange.Range
	OccupiesCalendar() bool
}

type Day struct {
	Date   daterange.Date
	Status DayStatus
}

type Stats struct {
	TotalDays           int
	AvailableDays       int
	RentalBlockedDays   int
	ManuallyBlockedDays int
}

// Calendar is the resolved per-day state of one car over a window.
// It is derived on every query and never stored.
type Calendar struct {
	CarID  cars.CarID
	Window daterange.Range
	Days   []Day
	Stats  Stats
	index  map[daterange.Date]DayStatus
}

// Resolve derives the status of every day in window. A day covered by an
// occupying rental is rented even when also blocked; otherwise a blocked
// date is blocked; everything else is available. occupants must not hold
// nil entries.
func Resolve(carID cars.CarID, window daterange.Range, blocked []BlockedDate, occupants []Occupant) *Calendar {
	blockedSet := make(map[daterange.Date]struct{}, len(blocked))
	for _, b := range blocked {
		blockedSet[b.Date] = struct{}{}
	}
	var active []daterange.Range
	for _, o := range occupants {
		if !o.OccupiesCalendar() {
			continue
		}
		if p := o.Period(); p.Overlaps(window) {
			active = append(active, p)
		}
	}

	dates := window.Dates()
	cal := &Calendar{
		CarID:  carID,
		Window: window,
		Days:   make([]Day, 0, len(dates)),
		index:  make(map[daterange.Date]DayStatus, len(dates)),
	}
	for _, d := range dates {
		status := StatusAvailable
		if coveredBy(active, d) {
			status = StatusRented
		} else if _, ok := blockedSet[d]; ok {
			status = StatusBlocked
		}
		cal.Days = append(cal.Days, Day{Date: d, Status: status})
		cal.index[d] = status
		switch status {
		case StatusRented:
			cal.Stats.RentalBlockedDays++
		case StatusBlocked:
			cal.Stats.ManuallyBlockedDays++
		default:
			cal.Stats.AvailableDays++
		}
	}
	cal.Stats.TotalDays = len(cal.Days)
	return cal
}

// ResolveMonth is Resolve over a whole calendar month.
func ResolveMonth(carID cars.CarID, year int, month time.Month, blocked []BlockedDate, occupants []Occupant) *Calendar {
	return Resolve(carID, daterange.Month(year, month), blocked, occupants)
}

// StatusOn reports the status of d; ok is false outside the window.
func (c *Calendar) StatusOn(d daterange.Date) (DayStatus, bool) {
	s, ok := c.index[d]
	return s, ok
}

// DatesWith lists the window's dates in the given status, ascending.
func (c *Calendar) DatesWith(status DayStatus) []daterange.Date {
	var out []daterange.Date
	for _, day := range c.Days {
		if day.Status == status {
			out = append(out, day.Date)
		}
	}
	return out
}

func coveredBy(ranges []daterange.Range, d daterange.Date) bool {
	for _, r := range ranges {
		if r.Contains(d) {
			return true
		}
	}
	return false
}

// normalizeDates sorts and dedupes dates.
func normalizeDates(dates []daterange.Date) []daterange.Date {
	seen := make(map[daterange.Date]struct{}, len(dates))
	out := make([]daterange.Date, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
