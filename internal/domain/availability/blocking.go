package availability

import (
	"time"

	"rentacar/internal/domain/shared/daterange"
)

type SkipReason string

const (
	SkipRented         SkipReason = "rented"
	SkipAlreadyBlocked SkipReason = "already_blocked"
	SkipNotBlocked     SkipReason = "not_blocked"
	SkipPast           SkipReason = "past"
)

type Skipped struct {
	Date   daterange.Date `json:"date"`
	Reason SkipReason     `json:"reason"`
}

// BlockPlan is the outcome of a block request against a resolved calendar.
type BlockPlan struct {
	Add     []daterange.Date
	Skipped []Skipped
}

// UnblockPlan is the outcome of an unblock request against a resolved calendar.
type UnblockPlan struct {
	Remove  []daterange.Date
	Skipped []Skipped
}

// Window returns the range a calendar must cover to plan for dates.
func Window(dates []daterange.Date) (daterange.Range, bool) {
	return daterange.Spanning(dates)
}

// PlanBlock selects the dates that may be blocked. Rented, already
// blocked and past dates are skipped. cal must cover every requested date.
func PlanBlock(cal *Calendar, dates []daterange.Date, now time.Time) BlockPlan {
	var plan BlockPlan
	for _, d := range normalizeDates(dates) {
		status, _ := cal.StatusOn(d)
		switch {
		case status == StatusRented:
			plan.Skipped = append(plan.Skipped, Skipped{Date: d, Reason: SkipRented})
		case status == StatusBlocked:
			plan.Skipped = append(plan.Skipped, Skipped{Date: d, Reason: SkipAlreadyBlocked})
		case daterange.IsPast(d, now):
			plan.Skipped = append(plan.Skipped, Skipped{Date: d, Reason: SkipPast})
		default:
			plan.Add = append(plan.Add, d)
		}
	}
	return plan
}

// PlanUnblock selects the dates currently blocked. Rented dates stay as they
// are and dates that are not blocked are reported, not treated as errors.
func PlanUnblock(cal *Calendar, dates []daterange.Date) UnblockPlan {
	var plan UnblockPlan
	for _, d := range normalizeDates(dates) {
		status, _ := cal.StatusOn(d)
		switch status {
		case StatusBlocked:
			plan.Remove = append(plan.Remove, d)
		case StatusRented:
			plan.Skipped = append(plan.Skipped, Skipped{Date: d, Reason: SkipRented})
		default:
			plan.Skipped = append(plan.Skipped, Skipped{Date: d, Reason: SkipNotBlocked})
		}
	}
	return plan
}
