package availability

import (
	"context"
	"time"

	"rentacar/internal/app/dto"
	handlersupport "rentacar/internal/app/handlers/support"
	"rentacar/internal/app/queries"
	"rentacar/internal/app/uow"
	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/daterange"
)

const getCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	CarID string
	Year  int
	Month int
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

func (q GetCalendarQuery) Validate() error {
	verr := &apperr.ValidationError{}
	if q.Month < 1 || q.Month > 12 {
		verr.Add("month_range", "month must be between 1 and 12")
	}
	if q.Year < 2000 || q.Year > 2100 {
		verr.Add("year_range", "year must be between 2000 and 2100")
	}
	return verr.OrNil()
}

// GetCalendarHandler resolves a car's month from the current blocked dates
// and rentals on every call.
type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	if err := q.Validate(); err != nil {
		return dto.Calendar{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	car, err := unit.Cars().ByID(execCtx, domaincars.CarID(q.CarID))
	if err != nil {
		return dto.Calendar{}, err
	}
	view, err := handlersupport.ResolveCalendar(execCtx, unit, car.ID, daterange.Month(q.Year, time.Month(q.Month)))
	if err != nil {
		return dto.Calendar{}, err
	}
	who, _ := actor.FromContext(ctx)
	return dto.MapCalendar(view.Calendar, view.Blocked, view.Rentals, who.ManagesAgency(string(car.Agency))), nil
}

func (h *GetCalendarHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[GetCalendarQuery, dto.Calendar](bus, getCalendarKey, h)
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
