package dto

import (
	"time"

	domaincars "rentacar/internal/domain/cars"
	domainpricing "rentacar/internal/domain/pricing"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/daterange"
)

type CarSnapshot struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type StatusChange struct {
	From string    `json:"from,omitempty"`
	To   string    `json:"to"`
	By   string    `json:"by"`
	At   time.Time `json:"at"`
}

type Rental struct {
	ID                 string         `json:"id"`
	Car                CarSnapshot    `json:"car"`
	AgencyID           string         `json:"agency_id"`
	ClientID           string         `json:"client_id"`
	StartDate          daterange.Date `json:"start_date"`
	EndDate            daterange.Date `json:"end_date"`
	PickupAt           time.Time      `json:"pickup_at"`
	ReturnAt           time.Time      `json:"return_at"`
	Days               int            `json:"days"`
	Status             string         `json:"status"`
	Total              MoneyDTO       `json:"total"`
	DailyRate          MoneyDTO       `json:"daily_rate"`
	Notes              string         `json:"notes,omitempty"`
	AllowedTransitions []string       `json:"allowed_transitions"`
	History            []StatusChange `json:"history"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

type RentalCollection struct {
	Items []Rental `json:"items"`
}

// MapRental renders a rental. car may be nil when it was deleted.
func MapRental(r *domainrental.Rental, car *domaincars.Car) Rental {
	snapshot := CarSnapshot{ID: string(r.CarID)}
	if car != nil {
		snapshot.Title = car.Title()
	}
	allowed := make([]string, 0, 2)
	for _, s := range r.Status.AllowedNext() {
		allowed = append(allowed, string(s))
	}
	history := make([]StatusChange, 0, len(r.History))
	for _, h := range r.History {
		history = append(history, StatusChange{From: string(h.From), To: string(h.To), By: h.By, At: h.At})
	}
	return Rental{
		ID:                 string(r.ID),
		Car:                snapshot,
		AgencyID:           string(r.AgencyID),
		ClientID:           r.ClientID,
		StartDate:          r.Dates.Start,
		EndDate:            r.Dates.End,
		PickupAt:           r.PickupAt,
		ReturnAt:           r.ReturnAt,
		Days:               r.Days(),
		Status:             string(r.Status),
		Total:              MapMoney(r.Total),
		DailyRate:          MapMoney(domainpricing.ReconstructDailyRate(r.Total, r.Dates.Start, r.Dates.End)),
		Notes:              r.Notes,
		AllowedTransitions: allowed,
		History:            history,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type Quote struct {
	CarID       string         `json:"car_id"`
	StartDate   daterange.Date `json:"start_date"`
	EndDate     daterange.Date `json:"end_date"`
	Days        int            `json:"days"`
	PricePerDay MoneyDTO       `json:"price_per_day"`
	Total       MoneyDTO       `json:"total"`
	Available   bool           `json:"available"`
	Conflicts   []string       `json:"conflicts,omitempty"`
}

func MapQuote(carID domaincars.CarID, start, end daterange.Date, b domainpricing.Breakdown) Quote {
	return Quote{
		CarID:       string(carID),
		StartDate:   start,
		EndDate:     end,
		Days:        b.Days,
		PricePerDay: MapMoney(b.PricePerDay),
		Total:       MapMoney(b.Total),
		Available:   true,
	}
}
