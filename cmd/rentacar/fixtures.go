package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	handlersupport "rentacar/internal/app/handlers/support"
	"rentacar/internal/app/uow"
	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/money"
)

type carFixture struct {
	ID          string   `json:"id"`
	AgencyID    string   `json:"agency_id"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	PricePerDay int64    `json:"price_per_day_cents"`
	Currency    string   `json:"currency"`
	Fuel        string   `json:"fuel"`
	Gearbox     string   `json:"gearbox"`
	Seats       int      `json:"seats"`
	Doors       int      `json:"doors"`
	Mileage     int      `json:"mileage"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
}

// loadCarFixtures imports cars from a JSON array. Cars already stored are
// left untouched so restarts do not reset them.
func loadCarFixtures(ctx context.Context, factory uow.UoWFactory, path, currency string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("car fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []carFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	imported := 0
	for _, fx := range fixtures {
		car, err := fx.toCar(currency, now)
		if err != nil {
			logger.Error("fixture invalid", "car_id", fx.ID, "error", err)
			continue
		}
		err = handlersupport.WithinUnit(ctx, factory, func(ctx context.Context, unit uow.UnitOfWork) error {
			if _, err := unit.Cars().ByID(ctx, car.ID); err == nil {
				return nil
			} else if !errors.Is(err, domaincars.ErrCarNotFound) {
				return err
			}
			if err := unit.Cars().Save(ctx, car); err != nil {
				return err
			}
			imported++
			return nil
		})
		if err != nil {
			logger.Error("cannot store fixture car", "car_id", fx.ID, "error", err)
		}
	}
	logger.Info("car fixtures imported", "path", path, "count", imported)
	return nil
}

func (fx carFixture) toCar(currency string, now time.Time) (*domaincars.Car, error) {
	if fx.Currency != "" {
		currency = fx.Currency
	}
	price, err := money.New(fx.PricePerDay, currency)
	if err != nil {
		return nil, err
	}
	return domaincars.NewCar(domaincars.CarID(fx.ID), domaincars.AgencyID(fx.AgencyID), domaincars.Details{
		Brand:       fx.Brand,
		Model:       fx.Model,
		Year:        fx.Year,
		PricePerDay: price,
		Fuel:        domaincars.Fuel(fx.Fuel),
		Gearbox:     domaincars.Gearbox(fx.Gearbox),
		Seats:       fx.Seats,
		Doors:       fx.Doors,
		Mileage:     fx.Mileage,
		Images:      fx.Images,
		Description: fx.Description,
	}, now)
}
