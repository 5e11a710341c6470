package cars

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
	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/money"
)

const (
	createCarKey = "cars.create"
	updateCarKey = "cars.update"
	deleteCarKey = "cars.delete"
)

// CarInput carries the editable attributes of a car. PricePerDay is in
// minor units of Currency.
type CarInput struct {
	Brand       string
	Model       string
	Year        int
	PricePerDay int64
	Currency    string
	Fuel        string
	Gearbox     string
	Seats       int
	Doors       int
	Mileage     int
	Images      []string
	Description string
}

func (in CarInput) validate() error {
	verr := &apperr.ValidationError{}
	if strings.TrimSpace(in.Brand) == "" {
		verr.Add("brand_required", "brand is required")
	}
	if strings.TrimSpace(in.Model) == "" {
		verr.Add("model_required", "model is required")
	}
	if in.PricePerDay <= 0 {
		verr.Add("price_positive", "price per day must be positive")
	}
	if in.Seats < 0 || in.Doors < 0 || in.Mileage < 0 {
		verr.Add("non_negative", "seats, doors and mileage cannot be negative")
	}
	return verr.OrNil()
}

func (in CarInput) details(defaultCurrency string) (domaincars.Details, error) {
	currency := in.Currency
	if strings.TrimSpace(currency) == "" {
		currency = defaultCurrency
	}
	price, err := money.New(in.PricePerDay, currency)
	if err != nil {
		return domaincars.Details{}, apperr.Invalid("currency", err.Error())
	}
	return domaincars.Details{
		Brand:       in.Brand,
		Model:       in.Model,
		Year:        in.Year,
		PricePerDay: price,
		Fuel:        domaincars.Fuel(in.Fuel),
		Gearbox:     domaincars.Gearbox(in.Gearbox),
		Seats:       in.Seats,
		Doors:       in.Doors,
		Mileage:     in.Mileage,
		Images:      in.Images,
		Description: in.Description,
	}, nil
}

type CreateCarCommand struct {
	CarID    string
	AgencyID string
	Input    CarInput
}

func (c CreateCarCommand) Key() string                { return createCarKey }
func (c CreateCarCommand) AllowedRoles() []actor.Role { return handlersupport.AdminRoles }
func (c CreateCarCommand) Validate() error            { return c.Input.validate() }

type UpdateCarCommand struct {
	CarID string
	Input CarInput
}

func (c UpdateCarCommand) Key() string                { return updateCarKey }
func (c UpdateCarCommand) AllowedRoles() []actor.Role { return handlersupport.AdminRoles }
func (c UpdateCarCommand) Validate() error            { return c.Input.validate() }

type DeleteCarCommand struct {
	CarID string
}

func (c DeleteCarCommand) Key() string                { return deleteCarKey }
func (c DeleteCarCommand) AllowedRoles() []actor.Role { return handlersupport.AdminRoles }

// CommandHandler serves the agency car management commands.
type CommandHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Currency   string
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CommandHandler) Create(ctx context.Context, cmd CreateCarCommand) (dto.Car, error) {
	who, err := handlersupport.RequireActor(ctx)
	if err != nil {
		return dto.Car{}, err
	}
	agencyID := strings.TrimSpace(cmd.AgencyID)
	if agencyID == "" {
		agencyID = who.AgencyID
	}
	if agencyID == "" {
		return dto.Car{}, apperr.Invalid("agency_required", "agency id is required")
	}
	if _, err := handlersupport.RequireAgencyAdmin(ctx, agencyID); err != nil {
		return dto.Car{}, err
	}
	details, err := cmd.Input.details(h.currency())
	if err != nil {
		return dto.Car{}, err
	}

	carID := strings.TrimSpace(cmd.CarID)
	if carID == "" {
		carID = uuid.NewString()
	}

	var out dto.Car
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		car, err := domaincars.NewCar(domaincars.CarID(carID), domaincars.AgencyID(agencyID), details, handlersupport.Clock(h.Now))
		if err != nil {
			return apperr.Invalid("car", err.Error())
		}
		if err := unit.Cars().Save(ctx, car); err != nil {
			return err
		}
		if err := outbox.Record(ctx, h.Outbox, h.Encoder, car); err != nil {
			return err
		}
		out = dto.MapCar(car)
		return nil
	})
	if err != nil {
		return dto.Car{}, err
	}
	h.log(ctx, "car created", "car_id", out.ID, "agency_id", out.AgencyID, "by", who.ID)
	return out, nil
}

func (h *CommandHandler) Update(ctx context.Context, cmd UpdateCarCommand) (dto.Car, error) {
	details, err := cmd.Input.details(h.currency())
	if err != nil {
		return dto.Car{}, err
	}
	var out dto.Car
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		car, err := unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID))
		if err != nil {
			return err
		}
		if _, err := handlersupport.RequireAgencyAdmin(ctx, string(car.Agency)); err != nil {
			return err
		}
		if err := car.Update(details, handlersupport.Clock(h.Now)); err != nil {
			return apperr.Invalid("car", err.Error())
		}
		if err := unit.Cars().Save(ctx, car); err != nil {
			return err
		}
		if err := outbox.Record(ctx, h.Outbox, h.Encoder, car); err != nil {
			return err
		}
		out = dto.MapCar(car)
		return nil
	})
	if err != nil {
		return dto.Car{}, err
	}
	h.log(ctx, "car updated", "car_id", out.ID)
	return out, nil
}

// Delete removes a car with no reserved or ongoing rentals, together with
// its blocked dates. Finished rentals keep referring to the car id.
func (h *CommandHandler) Delete(ctx context.Context, cmd DeleteCarCommand) (struct{}, error) {
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		car, err := unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID))
		if err != nil {
			return err
		}
		if _, err := handlersupport.RequireAgencyAdmin(ctx, string(car.Agency)); err != nil {
			return err
		}
		active, err := unit.Rentals().CountActiveByCar(ctx, car.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return domaincars.ErrCarHasRentals
		}
		if err := unit.BlockedDates().RemoveAllForCar(ctx, car.ID); err != nil {
			return err
		}
		if err := unit.Cars().Delete(ctx, car.ID); err != nil {
			return err
		}
		car.Remove(handlersupport.Clock(h.Now))
		return outbox.Record(ctx, h.Outbox, h.Encoder, car)
	})
	if err != nil {
		return struct{}{}, err
	}
	h.log(ctx, "car deleted", "car_id", cmd.CarID)
	return struct{}{}, nil
}

func (h *CommandHandler) currency() string {
	if h.Currency != "" {
		return h.Currency
	}
	return "EUR"
}

func (h *CommandHandler) log(ctx context.Context, msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, msg, args...)
	}
}

// Register attaches the handler's commands to bus.
func (h *CommandHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler(bus, createCarKey, commands.HandlerFunc[CreateCarCommand, dto.Car](h.Create))
	commands.RegisterHandler(bus, updateCarKey, commands.HandlerFunc[UpdateCarCommand, dto.Car](h.Update))
	commands.RegisterHandler(bus, deleteCarKey, commands.HandlerFunc[DeleteCarCommand, struct{}](h.Delete))
}

var (
	_ middleware.Restricted  = CreateCarCommand{}
	_ middleware.Validatable = UpdateCarCommand{}
)
