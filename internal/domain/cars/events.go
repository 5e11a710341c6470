package cars

import (
	"time"

	"rentacar/internal/domain/shared/money"
)

type CarRegistered struct {
	CarID       CarID       `json:"car_id"`
	Agency      AgencyID    `json:"agency_id"`
	PricePerDay money.Money `json:"price_per_day"`
	At          time.Time   `json:"at"`
}

func (e CarRegistered) EventName() string     { return "car.registered" }
func (e CarRegistered) AggregateID() string   { return string(e.CarID) }
func (e CarRegistered) OccurredAt() time.Time { return e.At }

type CarUpdated struct {
	CarID       CarID       `json:"car_id"`
	PricePerDay money.Money `json:"price_per_day"`
	At          time.Time   `json:"at"`
}

func (e CarUpdated) EventName() string     { return "car.updated" }
func (e CarUpdated) AggregateID() string   { return string(e.CarID) }
func (e CarUpdated) OccurredAt() time.Time { return e.At }

type CarRemoved struct {
	CarID  CarID     `json:"car_id"`
	Agency AgencyID  `json:"agency_id"`
	At     time.Time `json:"at"`
}

func (e CarRemoved) EventName() string     { return "car.removed" }
func (e CarRemoved) AggregateID() string   { return string(e.CarID) }
func (e CarRemoved) OccurredAt() time.Time { return e.At }
