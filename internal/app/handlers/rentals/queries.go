package rentals

import (
	"context"
	"errors"
	"strings"

	"rentacar/internal/app/dto"
	handlersupport "rentacar/internal/app/handlers/support"
	"rentacar/internal/app/queries"
	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	domainpricing "rentacar/internal/domain/pricing"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/daterange"
)

const (
	quoteKey      = "rentals.quote"
	getRentalKey  = "rentals.get"
	listMineKey   = "rentals.list_mine"
	listAgencyKey = "rentals.list_agency"
)

// QuoteQuery prices a prospective rental and reports whether the car is free
// over the whole range.
type QuoteQuery struct {
	CarID string
	Start daterange.Date
	End   daterange.Date
}

func (q QuoteQuery) Key() string { return quoteKey }

type GetRentalQuery struct {
	RentalID string
}

func (q GetRentalQuery) Key() string { return getRentalKey }

// ListMyRentalsQuery lists the calling client's rentals.
type ListMyRentalsQuery struct{}

func (q ListMyRentalsQuery) Key() string { return listMineKey }

type ListAgencyRentalsQuery struct {
	AgencyID string
	Statuses []string
}

func (q ListAgencyRentalsQuery) Key() string { return listAgencyKey }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QueryHandler) Quote(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
	rng, err := daterange.NewRange(q.Start, q.End)
	if err != nil {
		return dto.Quote{}, apperr.Invalid(domainrental.RuleEndAfterStart, err.Error())
	}
	if !domainrental.WithinRentalLimit(rng.Start, rng.End) {
		return dto.Quote{}, apperr.Invalid(domainrental.RuleRangeLimit, "rentals are limited to one year")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	car, err := unit.Cars().ByID(execCtx, domaincars.CarID(q.CarID))
	if err != nil {
		return dto.Quote{}, err
	}
	breakdown, err := domainpricing.Quote(car.PricePerDay, rng.Start, rng.End)
	if err != nil {
		return dto.Quote{}, err
	}
	view, err := handlersupport.ResolveCalendar(execCtx, unit, car.ID, rng)
	if err != nil {
		return dto.Quote{}, err
	}
	out := dto.MapQuote(car.ID, rng.Start, rng.End, breakdown)
	for _, day := range view.Calendar.Days {
		if day.Status != domainavailability.StatusAvailable {
			out.Conflicts = append(out.Conflicts, day.Date.String())
		}
	}
	out.Available = len(out.Conflicts) == 0
	return out, nil
}

func (h *QueryHandler) Get(ctx context.Context, q GetRentalQuery) (dto.Rental, error) {
	who, err := handlersupport.RequireActor(ctx)
	if err != nil {
		return dto.Rental{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Rental{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	rental, err := unit.Rentals().ByID(execCtx, domainrental.RentalID(q.RentalID))
	if err != nil {
		return dto.Rental{}, err
	}
	if !rental.VisibleTo(who) {
		return dto.Rental{}, apperr.Forbidden("rental belongs to another account")
	}
	car, err := lookupCar(execCtx, unit, rental.CarID)
	if err != nil {
		return dto.Rental{}, err
	}
	return dto.MapRental(rental, car), nil
}

func (h *QueryHandler) ListMine(ctx context.Context, _ ListMyRentalsQuery) (dto.RentalCollection, error) {
	who, err := handlersupport.RequireActor(ctx)
	if err != nil {
		return dto.RentalCollection{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RentalCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	found, err := unit.Rentals().ListByClient(execCtx, who.ID)
	if err != nil {
		return dto.RentalCollection{}, err
	}
	return mapRentals(execCtx, unit, found)
}

func (h *QueryHandler) ListAgency(ctx context.Context, q ListAgencyRentalsQuery) (dto.RentalCollection, error) {
	if _, err := handlersupport.RequireAgencyAdmin(ctx, q.AgencyID); err != nil {
		return dto.RentalCollection{}, err
	}
	statuses := make([]domainrental.Status, 0, len(q.Statuses))
	for _, raw := range q.Statuses {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		status, err := domainrental.ParseStatus(raw)
		if err != nil {
			return dto.RentalCollection{}, apperr.Invalid("status", err.Error())
		}
		statuses = append(statuses, status)
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RentalCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	found, err := unit.Rentals().ListByAgency(execCtx, domaincars.AgencyID(q.AgencyID), statuses)
	if err != nil {
		return dto.RentalCollection{}, err
	}
	return mapRentals(execCtx, unit, found)
}

func (h *QueryHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler(bus, quoteKey, queries.HandlerFunc[QuoteQuery, dto.Quote](h.Quote))
	queries.RegisterHandler(bus, getRentalKey, queries.HandlerFunc[GetRentalQuery, dto.Rental](h.Get))
	queries.RegisterHandler(bus, listMineKey, queries.HandlerFunc[ListMyRentalsQuery, dto.RentalCollection](h.ListMine))
	queries.RegisterHandler(bus, listAgencyKey, queries.HandlerFunc[ListAgencyRentalsQuery, dto.RentalCollection](h.ListAgency))
}

func mapRentals(ctx context.Context, unit uow.UnitOfWork, found []*domainrental.Rental) (dto.RentalCollection, error) {
	cache := make(map[domaincars.CarID]*domaincars.Car)
	items := make([]dto.Rental, 0, len(found))
	for _, r := range found {
		car, ok := cache[r.CarID]
		if !ok {
			var err error
			car, err = lookupCar(ctx, unit, r.CarID)
			if err != nil {
				return dto.RentalCollection{}, err
			}
			cache[r.CarID] = car
		}
		items = append(items, dto.MapRental(r, car))
	}
	return dto.RentalCollection{Items: items}, nil
}

// lookupCar returns nil without error for cars deleted after the rental ended.
func lookupCar(ctx context.Context, unit uow.UnitOfWork, id domaincars.CarID) (*domaincars.Car, error) {
	car, err := unit.Cars().ByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return car, err
}
