// Package bootstrap registers every handler on the command and query buses
// and wraps them with the standard middleware chain.
package bootstrap

import (
	"log/slog"
	"time"

	"rentacar/internal/app/commands"
	availabilityapp "rentacar/internal/app/handlers/availability"
	carsapp "rentacar/internal/app/handlers/cars"
	rentalsapp "rentacar/internal/app/handlers/rentals"
	"rentacar/internal/app/jobs"
	"rentacar/internal/app/middleware"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/queries"
	"rentacar/internal/app/uow"
)

type Deps struct {
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Idempotency middleware.IdempotencyStore
	Currency    string
	Logger      *slog.Logger
	Now         func() time.Time
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
	Reminder *jobs.PickupReminder
}

func Build(d Deps) Buses {
	encoder := d.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	commandBus := commands.NewInMemoryBus()
	(&carsapp.CommandHandler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Currency: d.Currency, Logger: logger, Now: d.Now}).Register(commandBus)
	(&availabilityapp.BlockingHandler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Logger: logger, Now: d.Now}).Register(commandBus)
	(&rentalsapp.CreateRentalHandler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Logger: logger, Now: d.Now}).Register(commandBus)
	(&rentalsapp.StatusHandler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Logger: logger, Now: d.Now}).Register(commandBus)

	queryBus := queries.NewInMemoryBus()
	(&carsapp.QueryHandler{UoWFactory: d.UoWFactory}).Register(queryBus)
	(&availabilityapp.GetCalendarHandler{UoWFactory: d.UoWFactory}).Register(queryBus)
	(&rentalsapp.QueryHandler{UoWFactory: d.UoWFactory}).Register(queryBus)

	cmdMiddleware := []middleware.CommandMiddleware{
		middleware.Logging(logger),
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Validation(middleware.SelfValidator{}),
	}
	if d.Idempotency != nil {
		cmdMiddleware = append(cmdMiddleware, middleware.Idempotency(d.Idempotency, nil))
	}
	cmdMiddleware = append(cmdMiddleware, middleware.Transaction(d.UoWFactory, nil))
	if d.Outbox != nil {
		cmdMiddleware = append(cmdMiddleware, middleware.OutboxFlush(d.Outbox, logger))
	}

	return Buses{
		Commands: middleware.ChainCommands(commandBus, cmdMiddleware...),
		Queries: middleware.ChainQueries(queryBus,
			middleware.QueryLogging(logger),
			middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
			middleware.QueryValidation(middleware.SelfValidator{}),
		),
		Reminder: &jobs.PickupReminder{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Logger: logger, Now: d.Now},
	}
}
