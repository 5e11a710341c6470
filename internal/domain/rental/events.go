package rental

import (
	"time"

	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/domain/shared/money"
)

type RentalCreated struct {
	RentalID RentalID       `json:"rental_id"`
	CarID    cars.CarID     `json:"car_id"`
	AgencyID cars.AgencyID  `json:"agency_id"`
	ClientID string         `json:"client_id"`
	Start    daterange.Date `json:"start_date"`
	End      daterange.Date `json:"end_date"`
	Total    money.Money    `json:"total"`
	At       time.Time      `json:"at"`
}

func (e RentalCreated) EventName() string     { return "rental.created" }
func (e RentalCreated) AggregateID() string   { return string(e.RentalID) }
func (e RentalCreated) OccurredAt() time.Time { return e.At }

// StatusChanged is emitted for every transition after creation. Its name
// depends on the target status.
type StatusChanged struct {
	RentalID RentalID   `json:"rental_id"`
	CarID    cars.CarID `json:"car_id"`
	From     Status     `json:"from"`
	To       Status     `json:"to"`
	By       string     `json:"by"`
	At       time.Time  `json:"at"`
}

func (e StatusChanged) EventName() string {
	switch e.To {
	case StatusOngoing:
		return "rental.started"
	case StatusCompleted:
		return "rental.completed"
	case StatusCancelled:
		return "rental.cancelled"
	default:
		return "rental.status_changed"
	}
}
func (e StatusChanged) AggregateID() string   { return string(e.RentalID) }
func (e StatusChanged) OccurredAt() time.Time { return e.At }

type PickupDue struct {
	RentalID RentalID       `json:"rental_id"`
	CarID    cars.CarID     `json:"car_id"`
	ClientID string         `json:"client_id"`
	Start    daterange.Date `json:"start_date"`
	PickupAt time.Time      `json:"pickup_at"`
	At       time.Time      `json:"at"`
}

func (e PickupDue) EventName() string     { return "rental.pickup_due" }
func (e PickupDue) AggregateID() string   { return string(e.RentalID) }
func (e PickupDue) OccurredAt() time.Time { return e.At }

func statusEvent(r *Rental, from Status, by string, at time.Time) StatusChanged {
	return StatusChanged{RentalID: r.ID, CarID: r.CarID, From: from, To: r.Status, By: by, At: at}
}
