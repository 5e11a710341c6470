package dto

import (
	domainavailability "rentacar/internal/domain/availability"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/daterange"
)

type BlockedDate struct {
	Date daterange.Date `json:"date"`
}

type CalendarRental struct {
	ID        string         `json:"id"`
	StartDate daterange.Date `json:"start_date"`
	EndDate   daterange.Date `json:"end_date"`
	Status    string         `json:"status"`
	ClientID  string         `json:"client_id,omitempty"`
}

type CalendarDay struct {
	Date   daterange.Date `json:"date"`
	Status string         `json:"status"`
}

type CalendarStats struct {
	TotalDays           int `json:"total_days"`
	AvailableDays       int `json:"available_days"`
	RentalBlockedDays   int `json:"rental_blocked_days"`
	ManuallyBlockedDays int `json:"manually_blocked_days"`
}

type Calendar struct {
	CarID        string           `json:"car_id"`
	From         daterange.Date   `json:"from"`
	To           daterange.Date   `json:"to"`
	BlockedDates []BlockedDate    `json:"blocked_dates"`
	Rentals      []CalendarRental `json:"rentals"`
	Days         []CalendarDay    `json:"days"`
	Stats        CalendarStats    `json:"stats"`
}

// MapCalendar renders a resolved calendar. Client ids are included only
// when showClients is set.
func MapCalendar(cal *domainavailability.Calendar, blocked []domainavailability.BlockedDate, rentals []*domainrental.Rental, showClients bool) Calendar {
	if cal == nil {
		return Calendar{}
	}
	out := Calendar{
		CarID:        string(cal.CarID),
		From:         cal.Window.Start,
		To:           cal.Window.End,
		BlockedDates: make([]BlockedDate, 0, len(blocked)),
		Rentals:      make([]CalendarRental, 0, len(rentals)),
		Days:         make([]CalendarDay, 0, len(cal.Days)),
		Stats: CalendarStats{
			TotalDays:           cal.Stats.TotalDays,
			AvailableDays:       cal.Stats.AvailableDays,
			RentalBlockedDays:   cal.Stats.RentalBlockedDays,
			ManuallyBlockedDays: cal.Stats.ManuallyBlockedDays,
		},
	}
	for _, b := range blocked {
		out.BlockedDates = append(out.BlockedDates, BlockedDate{Date: b.Date})
	}
	for _, r := range rentals {
		item := CalendarRental{
			ID:        string(r.ID),
			StartDate: r.Dates.Start,
			EndDate:   r.Dates.End,
			Status:    string(r.Status),
		}
		if showClients {
			item.ClientID = r.ClientID
		}
		out.Rentals = append(out.Rentals, item)
	}
	for _, day := range cal.Days {
		out.Days = append(out.Days, CalendarDay{Date: day.Date, Status: string(day.Status)})
	}
	return out
}

type SkippedDate struct {
	Date   daterange.Date `json:"date"`
	Reason string         `json:"reason"`
}

// BlockResult answers block and unblock requests. Changed lists the dates
// actually written.
type BlockResult struct {
	CarID   string           `json:"car_id"`
	Changed []daterange.Date `json:"changed"`
	Skipped []SkippedDate    `json:"skipped"`
	Message string           `json:"message,omitempty"`
}

func MapSkipped(skipped []domainavailability.Skipped) []SkippedDate {
	out := make([]SkippedDate, 0, len(skipped))
	for _, s := range skipped {
		out = append(out, SkippedDate{Date: s.Date, Reason: string(s.Reason)})
	}
	return out
}
