package dto

import (
	"time"

	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency, Display: value.String()}
}

type Car struct {
	ID          string    `json:"id"`
	AgencyID    string    `json:"agency_id"`
	Title       string    `json:"title"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Year        int       `json:"year,omitempty"`
	PricePerDay MoneyDTO  `json:"price_per_day"`
	Fuel        string    `json:"fuel,omitempty"`
	Gearbox     string    `json:"gearbox,omitempty"`
	Seats       int       `json:"seats,omitempty"`
	Doors       int       `json:"doors,omitempty"`
	Mileage     int       `json:"mileage,omitempty"`
	Images      []string  `json:"images"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CarCollection struct {
	Items  []Car `json:"items"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func MapCar(car *domaincars.Car) Car {
	images := car.Images
	if images == nil {
		images = []string{}
	}
	return Car{
		ID:          string(car.ID),
		AgencyID:    string(car.Agency),
		Title:       car.Title(),
		Brand:       car.Brand,
		Model:       car.Model,
		Year:        car.Year,
		PricePerDay: MapMoney(car.PricePerDay),
		Fuel:        string(car.Fuel),
		Gearbox:     string(car.Gearbox),
		Seats:       car.Seats,
		Doors:       car.Doors,
		Mileage:     car.Mileage,
		Images:      images,
		Description: car.Description,
		CreatedAt:   car.CreatedAt,
		UpdatedAt:   car.UpdatedAt,
	}
}
