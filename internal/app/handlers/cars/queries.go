package cars

import (
	"context"

	"rentacar/internal/app/dto"
	handlersupport "rentacar/internal/app/handlers/support"
	"rentacar/internal/app/queries"
	"rentacar/internal/app/uow"
	domaincars "rentacar/internal/domain/cars"
)

const (
	getCarKey   = "cars.get"
	listCarsKey = "cars.list"

	defaultPageSize = 20
	maxPageSize     = 100
)

type GetCarQuery struct {
	CarID string
}

func (q GetCarQuery) Key() string { return getCarKey }

type ListCarsQuery struct {
	AgencyID string
	Limit    int
	Offset   int
}

func (q ListCarsQuery) Key() string { return listCarsKey }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QueryHandler) Get(ctx context.Context, q GetCarQuery) (dto.Car, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Car{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	car, err := unit.Cars().ByID(execCtx, domaincars.CarID(q.CarID))
	if err != nil {
		return dto.Car{}, err
	}
	return dto.MapCar(car), nil
}

func (h *QueryHandler) List(ctx context.Context, q ListCarsQuery) (dto.CarCollection, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := max(q.Offset, 0)

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CarCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	found, err := unit.Cars().List(execCtx, domaincars.ListParams{Agency: domaincars.AgencyID(q.AgencyID), Limit: limit, Offset: offset})
	if err != nil {
		return dto.CarCollection{}, err
	}
	items := make([]dto.Car, 0, len(found))
	for _, car := range found {
		items = append(items, dto.MapCar(car))
	}
	return dto.CarCollection{Items: items, Limit: limit, Offset: offset}, nil
}

func (h *QueryHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler(bus, getCarKey, queries.HandlerFunc[GetCarQuery, dto.Car](h.Get))
	queries.RegisterHandler(bus, listCarsKey, queries.HandlerFunc[ListCarsQuery, dto.CarCollection](h.List))
}
