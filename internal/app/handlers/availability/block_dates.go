package availability

import (
	"context"
	"log/slog"
	"time"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	handlersupport "rentacar/internal/app/handlers/support"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/domain/shared/events"
)

const (
	blockDatesKey   = "availability.block"
	unblockDatesKey = "availability.unblock"

	maxDatesPerRequest = 366
	maxSpanDays        = 366
	partialMessage     = "some dates were skipped: already blocked or have rentals"
)

type BlockDatesCommand struct {
	CarID string
	Dates []daterange.Date
}

func (c BlockDatesCommand) Key() string                { return blockDatesKey }
func (c BlockDatesCommand) AllowedRoles() []actor.Role { return handlersupport.AdminRoles }
func (c BlockDatesCommand) Validate() error            { return validateDates(c.Dates) }

type UnblockDatesCommand struct {
	CarID string
	Dates []daterange.Date
}

func (c UnblockDatesCommand) Key() string                { return unblockDatesKey }
func (c UnblockDatesCommand) AllowedRoles() []actor.Role { return handlersupport.AdminRoles }
func (c UnblockDatesCommand) Validate() error            { return validateDates(c.Dates) }

func validateDates(dates []daterange.Date) error {
	switch {
	case len(dates) == 0:
		return apperr.Invalid("dates_required", "at least one date is required")
	case len(dates) > maxDatesPerRequest:
		return apperr.Invalid("dates_limit", "too many dates in one request")
	}
	for _, d := range dates {
		if d.IsZero() {
			return apperr.Invalid("date_format", "dates must be YYYY-MM-DD")
		}
	}
	return checkSpan(dates)
}

// checkSpan bounds the calendar window a request resolves, not just the
// number of dates it names.
func checkSpan(dates []daterange.Date) error {
	window, ok := domainavailability.Window(dates)
	if ok && window.Days() > maxSpanDays {
		return apperr.Invalid("range_limit", "requested dates must fall within one year")
	}
	return nil
}

// BlockingHandler applies agency block and unblock requests. Dates that
// cannot change are reported as skipped; the request still succeeds.
type BlockingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *BlockingHandler) Block(ctx context.Context, cmd BlockDatesCommand) (dto.BlockResult, error) {
	now := handlersupport.Clock(h.Now)
	result := dto.BlockResult{CarID: cmd.CarID}
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		car, who, cal, err := h.prepare(ctx, unit, cmd.CarID, cmd.Dates)
		if err != nil {
			return err
		}
		plan := domainavailability.PlanBlock(cal, cmd.Dates, now)
		if len(plan.Add) > 0 {
			if err := unit.BlockedDates().AddBlocked(ctx, car.ID, plan.Add, now); err != nil {
				return err
			}
			ev := domainavailability.DatesBlocked{CarID: car.ID, Dates: plan.Add, By: who.ID, At: now}
			if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, []events.DomainEvent{ev}); err != nil {
				return err
			}
		}
		result.Changed = nonNil(plan.Add)
		result.Skipped = dto.MapSkipped(plan.Skipped)
		return nil
	})
	if err != nil {
		return dto.BlockResult{}, err
	}
	if len(result.Skipped) > 0 {
		result.Message = partialMessage
	}
	h.log(ctx, "dates blocked", "car_id", cmd.CarID, "blocked", len(result.Changed), "skipped", len(result.Skipped))
	return result, nil
}

func (h *BlockingHandler) Unblock(ctx context.Context, cmd UnblockDatesCommand) (dto.BlockResult, error) {
	now := handlersupport.Clock(h.Now)
	result := dto.BlockResult{CarID: cmd.CarID}
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		car, who, cal, err := h.prepare(ctx, unit, cmd.CarID, cmd.Dates)
		if err != nil {
			return err
		}
		plan := domainavailability.PlanUnblock(cal, cmd.Dates)
		if len(plan.Remove) > 0 {
			if err := unit.BlockedDates().RemoveBlocked(ctx, car.ID, plan.Remove); err != nil {
				return err
			}
			ev := domainavailability.DatesUnblocked{CarID: car.ID, Dates: plan.Remove, By: who.ID, At: now}
			if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, []events.DomainEvent{ev}); err != nil {
				return err
			}
		}
		result.Changed = nonNil(plan.Remove)
		result.Skipped = dto.MapSkipped(plan.Skipped)
		return nil
	})
	if err != nil {
		return dto.BlockResult{}, err
	}
	h.log(ctx, "dates unblocked", "car_id", cmd.CarID, "unblocked", len(result.Changed), "skipped", len(result.Skipped))
	return result, nil
}

func (h *BlockingHandler) prepare(ctx context.Context, unit uow.UnitOfWork, carID string, dates []daterange.Date) (*domaincars.Car, actor.Actor, *domainavailability.Calendar, error) {
	car, err := unit.Cars().ByID(ctx, domaincars.CarID(carID))
	if err != nil {
		return nil, actor.Actor{}, nil, err
	}
	who, err := handlersupport.RequireAgencyAdmin(ctx, string(car.Agency))
	if err != nil {
		return nil, actor.Actor{}, nil, err
	}
	window, ok := domainavailability.Window(dates)
	if !ok {
		return nil, actor.Actor{}, nil, apperr.Invalid("dates_required", "at least one date is required")
	}
	if err := checkSpan(dates); err != nil {
		return nil, actor.Actor{}, nil, err
	}
	view, err := handlersupport.ResolveCalendar(ctx, unit, car.ID, window)
	if err != nil {
		return nil, actor.Actor{}, nil, err
	}
	return car, who, view.Calendar, nil
}

func (h *BlockingHandler) log(ctx context.Context, msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, msg, args...)
	}
}

func (h *BlockingHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler(bus, blockDatesKey, commands.HandlerFunc[BlockDatesCommand, dto.BlockResult](h.Block))
	commands.RegisterHandler(bus, unblockDatesKey, commands.HandlerFunc[UnblockDatesCommand, dto.BlockResult](h.Unblock))
}

func nonNil(dates []daterange.Date) []daterange.Date {
	if dates == nil {
		return []daterange.Date{}
	}
	return dates
}
