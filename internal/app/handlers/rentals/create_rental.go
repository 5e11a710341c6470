package rentals

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	handlersupport "rentacar/internal/app/handlers/support"
	"rentacar/internal/app/middleware"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	domaincars "rentacar/internal/domain/cars"
	domainpricing "rentacar/internal/domain/pricing"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/domain/shared/money"
)

const createRentalKey = "rentals.create"

// CreateRentalCommand books a car for a client. Total is what the client was
// shown, in minor units; zero skips the comparison with the server quote.
type CreateRentalCommand struct {
	RentalID        string
	CarID           string
	ClientID        string
	Start           daterange.Date
	End             daterange.Date
	PickupAt        time.Time
	ReturnAt        time.Time
	Total           int64
	Currency        string
	Notes           string
	IdempotencyKeyV string
}

func (c CreateRentalCommand) Key() string                { return createRentalKey }
func (c CreateRentalCommand) AllowedRoles() []actor.Role { return []actor.Role{actor.RoleClient} }

// IdempotencyKey is scoped to the client so keys never collide across accounts.
func (c CreateRentalCommand) IdempotencyKey() string {
	if strings.TrimSpace(c.IdempotencyKeyV) == "" {
		return ""
	}
	return createRentalKey + ":" + c.ClientID + ":" + strings.TrimSpace(c.IdempotencyKeyV)
}

func (c CreateRentalCommand) ResultPrototype() any { return &dto.Rental{} }

func (c CreateRentalCommand) Validate() error {
	verr := &apperr.ValidationError{}
	if strings.TrimSpace(c.CarID) == "" {
		verr.Add("car_required", "car id is required")
	}
	if c.Start.IsZero() || c.End.IsZero() {
		verr.Add("dates_required", "start and end dates are required")
	} else if c.End.After(c.Start) && !domainrental.WithinRentalLimit(c.Start, c.End) {
		verr.Add(domainrental.RuleRangeLimit, "rentals are limited to one year")
	}
	if c.Total < 0 {
		verr.Add("total_non_negative", "total cannot be negative")
	}
	if len(c.Notes) > 2000 {
		verr.Add("notes_length", "notes are limited to 2000 characters")
	}
	return verr.OrNil()
}

type CreateRentalHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle validates the booking against a freshly resolved calendar, charges
// exactly the server quote and stores the rental as reserved. Nothing is
// written when any rule fails.
func (h *CreateRentalHandler) Handle(ctx context.Context, cmd CreateRentalCommand) (*dto.Rental, error) {
	who, err := handlersupport.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	if cmd.ClientID != "" && cmd.ClientID != who.ID {
		return nil, apperr.Forbidden("rentals can only be booked for yourself")
	}
	now := handlersupport.Clock(h.Now)
	rentalID := strings.TrimSpace(cmd.RentalID)
	if rentalID == "" {
		rentalID = uuid.NewString()
	}

	var out dto.Rental
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		car, err := unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID))
		if err != nil {
			return err
		}
		window, _ := daterange.Spanning([]daterange.Date{cmd.Start, cmd.End})
		view, err := handlersupport.ResolveCalendar(ctx, unit, car.ID, window)
		if err != nil {
			return err
		}
		req := domainrental.BookingRequest{Start: cmd.Start, End: cmd.End, PickupAt: cmd.PickupAt, ReturnAt: cmd.ReturnAt}
		if err := domainrental.ValidateBooking(req, view.Calendar, now); err != nil {
			return err
		}

		quote, err := domainpricing.Quote(car.PricePerDay, cmd.Start, cmd.End)
		if err != nil {
			return err
		}
		if cmd.Total != 0 {
			currency := cmd.Currency
			if currency == "" {
				currency = quote.Total.Currency
			}
			claimed, err := money.New(cmd.Total, currency)
			if err != nil {
				return apperr.Invalid("currency", err.Error())
			}
			if err := domainrental.CheckClientTotal(claimed, quote.Total); err != nil {
				return err
			}
		}

		rental, err := domainrental.NewRental(domainrental.CreateParams{
			ID:       domainrental.RentalID(rentalID),
			Car:      car,
			ClientID: who.ID,
			Dates:    daterange.Range{Start: cmd.Start, End: cmd.End},
			PickupAt: cmd.PickupAt,
			ReturnAt: cmd.ReturnAt,
			Total:    quote.Total,
			Notes:    cmd.Notes,
			Now:      now,
		})
		if err != nil {
			return err
		}
		if err := unit.Rentals().Create(ctx, rental); err != nil {
			return err
		}
		if err := outbox.Record(ctx, h.Outbox, h.Encoder, rental); err != nil {
			return err
		}
		out = dto.MapRental(rental, car)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "rental reserved", "rental_id", out.ID, "car_id", out.Car.ID, "client_id", who.ID, "days", out.Days, "total", out.Total.Display)
	}
	return &out, nil
}

func (h *CreateRentalHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[CreateRentalCommand, *dto.Rental](bus, createRentalKey, h)
}

var (
	_ commands.Handler[CreateRentalCommand, *dto.Rental] = (*CreateRentalHandler)(nil)
	_ middleware.IdempotentCommand                       = CreateRentalCommand{}
	_ middleware.Validatable                             = CreateRentalCommand{}
)
