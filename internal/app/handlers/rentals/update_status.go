package rentals

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	handlersupport "rentacar/internal/app/handlers/support"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
)

const (
	updateStatusKey = "rentals.update_status"
	cancelRentalKey = "rentals.cancel"
)

// UpdateRentalStatusCommand moves a rental along its lifecycle. When
// ExpectedStatus is set the move only happens from that status.
type UpdateRentalStatusCommand struct {
	RentalID       string
	Status         string
	ExpectedStatus string
}

func (c UpdateRentalStatusCommand) Key() string                { return updateStatusKey }
func (c UpdateRentalStatusCommand) AllowedRoles() []actor.Role { return handlersupport.AnyRole }

func (c UpdateRentalStatusCommand) Validate() error {
	if _, err := domainrental.ParseStatus(c.Status); err != nil {
		return apperr.Invalid("status", err.Error())
	}
	if strings.TrimSpace(c.ExpectedStatus) != "" {
		if _, err := domainrental.ParseStatus(c.ExpectedStatus); err != nil {
			return apperr.Invalid("expected_status", err.Error())
		}
	}
	return nil
}

type CancelRentalCommand struct {
	RentalID       string
	ExpectedStatus string
}

func (c CancelRentalCommand) Key() string                { return cancelRentalKey }
func (c CancelRentalCommand) AllowedRoles() []actor.Role { return handlersupport.AnyRole }

type StatusHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *StatusHandler) UpdateStatus(ctx context.Context, cmd UpdateRentalStatusCommand) (dto.Rental, error) {
	to, err := domainrental.ParseStatus(cmd.Status)
	if err != nil {
		return dto.Rental{}, apperr.Invalid("status", err.Error())
	}
	return h.transition(ctx, cmd.RentalID, to, cmd.ExpectedStatus)
}

func (h *StatusHandler) Cancel(ctx context.Context, cmd CancelRentalCommand) (dto.Rental, error) {
	return h.transition(ctx, cmd.RentalID, domainrental.StatusCancelled, cmd.ExpectedStatus)
}

// transition applies the move and persists it with a compare-and-set on the
// status that was read, so a concurrent change makes this call fail with a
// conflict instead of overwriting it.
func (h *StatusHandler) transition(ctx context.Context, rentalID string, to domainrental.Status, expectedRaw string) (dto.Rental, error) {
	who, err := handlersupport.RequireActor(ctx)
	if err != nil {
		return dto.Rental{}, err
	}
	now := handlersupport.Clock(h.Now)

	var out dto.Rental
	var from domainrental.Status
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		rental, err := unit.Rentals().ByID(ctx, domainrental.RentalID(rentalID))
		if err != nil {
			return err
		}
		if !rental.VisibleTo(who) {
			return apperr.Forbidden("rental belongs to another account")
		}
		from = rental.Status
		if strings.TrimSpace(expectedRaw) != "" {
			expected, err := domainrental.ParseStatus(expectedRaw)
			if err != nil {
				return apperr.Invalid("expected_status", err.Error())
			}
			if expected != from {
				return &apperr.ConflictError{Resource: "rental", ID: rentalID, Expected: string(expected), Actual: string(from)}
			}
		}
		if err := rental.Transition(to, who, now); err != nil {
			return err
		}
		if err := unit.Rentals().UpdateStatus(ctx, rental, from); err != nil {
			return err
		}
		if err := outbox.Record(ctx, h.Outbox, h.Encoder, rental); err != nil {
			return err
		}
		car, err := unit.Cars().ByID(ctx, rental.CarID)
		if err != nil {
			car = nil
		}
		out = dto.MapRental(rental, car)
		return nil
	})
	if err != nil {
		return dto.Rental{}, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "rental status changed", "rental_id", rentalID, "from", from, "to", to, "by", who.ID)
	}
	return out, nil
}

func (h *StatusHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler(bus, updateStatusKey, commands.HandlerFunc[UpdateRentalStatusCommand, dto.Rental](h.UpdateStatus))
	commands.RegisterHandler(bus, cancelRentalKey, commands.HandlerFunc[CancelRentalCommand, dto.Rental](h.Cancel))
}
