package memory

import (
	"context"
	"errors"

	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	domainrental "rentacar/internal/domain/rental"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	CarsRepo         domaincars.Repository
	BlockedDatesRepo domainavailability.Repository
	RentalsRepo      domainrental.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// NewFactory builds a factory over fresh, empty repositories.
func NewFactory() Factory {
	return Factory{
		CarsRepo:         NewCarRepository(),
		BlockedDatesRepo: NewBlockedDateRepository(),
		RentalsRepo:      NewRentalRepository(),
	}
}

// Begin starts a lightweight boundary. Writes apply immediately; the
// repositories themselves serialize access.
func (f Factory) Begin(_ context.Context, _ uow.TxOptions) (uow.UnitOfWork, error) {
	if f.CarsRepo == nil || f.BlockedDatesRepo == nil || f.RentalsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{cars: f.CarsRepo, blocked: f.BlockedDatesRepo, rentals: f.RentalsRepo}, nil
}

// Unit is a uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	cars    domaincars.Repository
	blocked domainavailability.Repository
	rentals domainrental.Repository
}

func (u *Unit) Cars() domaincars.Repository                 { return u.cars }
func (u *Unit) BlockedDates() domainavailability.Repository { return u.blocked }
func (u *Unit) Rentals() domainrental.Repository            { return u.rentals }

func (u *Unit) Commit(context.Context) error   { return nil }
func (u *Unit) Rollback(context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
