package support

import (
	"context"
	"time"

	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/daterange"
)

// CalendarView is a resolved calendar with the records it was derived from.
type CalendarView struct {
	Calendar *domainavailability.Calendar
	Blocked  []domainavailability.BlockedDate
	Rentals  []*domainrental.Rental
}

// ResolveCalendar loads the car's blocked dates and rentals over window and
// resolves the per-day status from scratch.
func ResolveCalendar(ctx context.Context, unit uow.UnitOfWork, carID domaincars.CarID, window daterange.Range) (CalendarView, error) {
	blocked, err := unit.BlockedDates().ListBlocked(ctx, carID, window)
	if err != nil {
		return CalendarView{}, err
	}
	rentals, err := unit.Rentals().ListByCar(ctx, carID, window)
	if err != nil {
		return CalendarView{}, err
	}
	occupants := make([]domainavailability.Occupant, 0, len(rentals))
	for _, r := range rentals {
		occupants = append(occupants, r)
	}
	return CalendarView{
		Calendar: domainavailability.Resolve(carID, window, blocked, occupants),
		Blocked:  blocked,
		Rentals:  rentals,
	}, nil
}

// Clock returns now() in UTC, defaulting to time.Now.
func Clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
