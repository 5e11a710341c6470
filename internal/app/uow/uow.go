package uow

import (
	"context"

	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	domainrental "rentacar/internal/domain/rental"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Cars() domaincars.Repository
	BlockedDates() domainavailability.Repository
	Rentals() domainrental.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
