package pricing

import (
	"errors"

	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/domain/shared/money"
)

var (
	ErrRateNotPositive = errors.New("pricing: daily rate must be positive")
	ErrCurrencyUnset   = errors.New("pricing: currency must be defined")
)

// Breakdown is the price of renting for an inclusive range of days.
type Breakdown struct {
	Days        int         `json:"days"`
	PricePerDay money.Money `json:"price_per_day"`
	Total       money.Money `json:"total"`
}

// Quote charges pricePerDay for every calendar day from start to end, both
// included. The total persisted on a rental is exactly this value.
func Quote(pricePerDay money.Money, start, end daterange.Date) (Breakdown, error) {
	if pricePerDay.Currency == "" {
		return Breakdown{}, ErrCurrencyUnset
	}
	if !pricePerDay.IsPositive() {
		return Breakdown{}, ErrRateNotPositive
	}
	days := daterange.DaysBetweenInclusive(start, end)
	return Breakdown{
		Days:        days,
		PricePerDay: pricePerDay,
		Total:       pricePerDay.Multiply(int64(days)),
	}, nil
}

// ReconstructDailyRate derives a display rate from a stored total. It is
// rounded half up and never used for charging.
func ReconstructDailyRate(total money.Money, start, end daterange.Date) money.Money {
	rate, err := total.DivideRound(int64(daterange.DaysBetweenInclusive(start, end)))
	if err != nil {
		return money.Money{Currency: total.Currency}
	}
	return rate
}
