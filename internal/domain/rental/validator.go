package rental

import (
	"fmt"
	"strings"
	"time"

	"rentacar/internal/domain/availability"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/domain/shared/money"
)

// Booking rule identifiers reported in validation errors.
const (
	RuleEndAfterStart     = "end_after_start"
	RuleStartNotPast      = "start_not_past"
	RuleTimesRequired     = "times_required"
	RuleReturnAfterPickup = "return_after_pickup"
	RuleDatesRented       = "dates_rented"
	RuleDatesBlocked      = "dates_blocked"
	RuleTotalMatchesQuote = "total_matches_quote"
	RuleRangeLimit        = "range_limit"
)

// MaxRentalDays caps a single booking, counted inclusively.
const MaxRentalDays = 366

// WithinRentalLimit reports whether start..end spans at most MaxRentalDays.
func WithinRentalLimit(start, end daterange.Date) bool {
	return daterange.DaysBetweenInclusive(start, end) <= MaxRentalDays
}

type BookingRequest struct {
	Start    daterange.Date
	End      daterange.Date
	PickupAt time.Time
	ReturnAt time.Time
}

// ValidateBooking checks a proposed rental against the car's resolved
// calendar. cal must cover Start..End. Every broken rule is reported.
func ValidateBooking(req BookingRequest, cal *availability.Calendar, now time.Time) error {
	verr := &apperr.ValidationError{}

	if req.Start.IsZero() || req.End.IsZero() || !req.End.After(req.Start) {
		verr.Add(RuleEndAfterStart, "end date must be after start date")
	}
	if !req.Start.IsZero() && daterange.IsPast(req.Start, now) {
		verr.Add(RuleStartNotPast, "start date is in the past", req.Start)
	}
	switch {
	case req.PickupAt.IsZero() || req.ReturnAt.IsZero():
		verr.Add(RuleTimesRequired, "pickup and return times are required")
	case !req.ReturnAt.After(req.PickupAt):
		verr.Add(RuleReturnAfterPickup, "return time must be after pickup time")
	}

	tooLong := !req.Start.IsZero() && req.End.After(req.Start) && !WithinRentalLimit(req.Start, req.End)
	if tooLong {
		verr.Add(RuleRangeLimit, "rentals are limited to one year")
	}

	if cal != nil && req.End.After(req.Start) && !tooLong {
		var rented, blocked []daterange.Date
		for _, d := range daterange.EnumerateDates(req.Start, req.End) {
			status, ok := cal.StatusOn(d)
			if !ok {
				continue
			}
			switch status {
			case availability.StatusRented:
				rented = append(rented, d)
			case availability.StatusBlocked:
				blocked = append(blocked, d)
			}
		}
		if len(rented) > 0 {
			verr.Add(RuleDatesRented, "car is already rented on "+joinDates(rented), rented...)
		}
		if len(blocked) > 0 {
			verr.Add(RuleDatesBlocked, "car is unavailable on "+joinDates(blocked), blocked...)
		}
	}
	return verr.OrNil()
}

// CheckClientTotal rejects a client-supplied total that disagrees with the
// server quote. A zero total means the client sent none.
func CheckClientTotal(claimed, quoted money.Money) error {
	if claimed.IsZero() {
		return nil
	}
	if !claimed.Equal(quoted) {
		return apperr.Invalid(RuleTotalMatchesQuote, fmt.Sprintf("total %s does not match quote %s", claimed, quoted))
	}
	return nil
}

func joinDates(dates []daterange.Date) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}
