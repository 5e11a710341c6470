package cars

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/events"
	"rentacar/internal/domain/shared/money"
)

var (
	ErrCarNotFound      = fmt.Errorf("cars: car %w", apperr.ErrNotFound)
	ErrCarHasRentals    = &apperr.ConflictError{Resource: "car", Expected: "no active rentals", Actual: "active rentals"}
	ErrBrandRequired    = errors.New("cars: brand is required")
	ErrModelRequired    = errors.New("cars: model is required")
	ErrAgencyRequired   = errors.New("cars: agency is required")
	ErrPriceNotPositive = errors.New("cars: price per day must be positive")
	ErrInvalidYear      = errors.New("cars: model year out of range")
)

type CarID string
type AgencyID string

type Fuel string

const (
	FuelPetrol   Fuel = "petrol"
	FuelDiesel   Fuel = "diesel"
	FuelHybrid   Fuel = "hybrid"
	FuelElectric Fuel = "electric"
)

type Gearbox string

const (
	GearboxManual    Gearbox = "manual"
	GearboxAutomatic Gearbox = "automatic"
)

type Car struct {
	ID          CarID
	Agency      AgencyID
	Brand       string
	Model       string
	Year        int
	PricePerDay money.Money
	Fuel        Fuel
	Gearbox     Gearbox
	Seats       int
	Doors       int
	Mileage     int
	Images      []string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type ListParams struct {
	Agency AgencyID
	Limit  int
	Offset int
}

type Repository interface {
	ByID(ctx context.Context, id CarID) (*Car, error)
	Save(ctx context.Context, car *Car) error
	Delete(ctx context.Context, id CarID) error
	List(ctx context.Context, params ListParams) ([]*Car, error)
}

// Details are the mutable attributes of a car.
type Details struct {
	Brand       string
	Model       string
	Year        int
	PricePerDay money.Money
	Fuel        Fuel
	Gearbox     Gearbox
	Seats       int
	Doors       int
	Mileage     int
	Images      []string
	Description string
}

func (d Details) normalized() Details {
	d.Brand = strings.TrimSpace(d.Brand)
	d.Model = strings.TrimSpace(d.Model)
	d.Description = strings.TrimSpace(d.Description)
	d.Fuel = Fuel(strings.ToLower(strings.TrimSpace(string(d.Fuel))))
	d.Gearbox = Gearbox(strings.ToLower(strings.TrimSpace(string(d.Gearbox))))
	d.Images = append([]string(nil), d.Images...)
	return d
}

func (d Details) validate(now time.Time) error {
	if d.Brand == "" {
		return ErrBrandRequired
	}
	if d.Model == "" {
		return ErrModelRequired
	}
	if d.Year != 0 && (d.Year < 1950 || d.Year > now.Year()+1) {
		return ErrInvalidYear
	}
	if !d.PricePerDay.IsPositive() || d.PricePerDay.Currency == "" {
		return ErrPriceNotPositive
	}
	return nil
}

func NewCar(id CarID, agency AgencyID, details Details, now time.Time) (*Car, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, errors.New("cars: id is required")
	}
	if strings.TrimSpace(string(agency)) == "" {
		return nil, ErrAgencyRequired
	}
	details = details.normalized()
	if err := details.validate(now); err != nil {
		return nil, err
	}
	car := &Car{
		ID:        id,
		Agency:    agency,
		CreatedAt: now.UTC(),
	}
	car.apply(details, now)
	car.Record(CarRegistered{CarID: car.ID, Agency: car.Agency, PricePerDay: car.PricePerDay, At: car.CreatedAt})
	return car, nil
}

func (c *Car) Update(details Details, now time.Time) error {
	details = details.normalized()
	if err := details.validate(now); err != nil {
		return err
	}
	c.apply(details, now)
	c.Record(CarUpdated{CarID: c.ID, PricePerDay: c.PricePerDay, At: c.UpdatedAt})
	return nil
}

// Remove records the deletion; the repository performs it.
func (c *Car) Remove(now time.Time) {
	c.Record(CarRemoved{CarID: c.ID, Agency: c.Agency, At: now.UTC()})
}

func (c *Car) Title() string {
	if c.Year > 0 {
		return fmt.Sprintf("%s %s (%d)", c.Brand, c.Model, c.Year)
	}
	return c.Brand + " " + c.Model
}

func (c *Car) apply(d Details, now time.Time) {
	c.Brand = d.Brand
	c.Model = d.Model
	c.Year = d.Year
	c.PricePerDay = d.PricePerDay
	c.Fuel = d.Fuel
	c.Gearbox = d.Gearbox
	c.Seats = d.Seats
	c.Doors = d.Doors
	c.Mileage = d.Mileage
	c.Images = d.Images
	c.Description = d.Description
	c.UpdatedAt = now.UTC()
}
