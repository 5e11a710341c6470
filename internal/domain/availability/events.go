package availability

import (
	"time"

	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
)

type DatesBlocked struct {
	CarID cars.CarID       `json:"car_id"`
	Dates []daterange.Date `json:"dates"`
	By    string           `json:"by"`
	At    time.Time        `json:"at"`
}

func (e DatesBlocked) EventName() string     { return "calendar.dates_blocked" }
func (e DatesBlocked) AggregateID() string   { return string(e.CarID) }
func (e DatesBlocked) OccurredAt() time.Time { return e.At }

type DatesUnblocked struct {
	CarID cars.CarID       `json:"car_id"`
	Dates []daterange.Date `json:"dates"`
	By    string           `json:"by"`
	At    time.Time        `json:"at"`
}

func (e DatesUnblocked) EventName() string     { return "calendar.dates_unblocked" }
func (e DatesUnblocked) AggregateID() string   { return string(e.CarID) }
func (e DatesUnblocked) OccurredAt() time.Time { return e.At }
