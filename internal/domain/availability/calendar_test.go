package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/domain/shared/daterange"
)

type stubRental struct {
	period   daterange.Range
	occupies bool
}

func (s stubRental) Period() daterange.Range { return s.period }
func (s stubRental) OccupiesCalendar() bool  { return s.occupies }

func d(s string) daterange.Date { return daterange.MustParseDate(s) }

func rng(start, end string) daterange.Range {
	return daterange.Range{Start: d(start), End: d(end)}
}

func blockedOn(dates ...string) []BlockedDate {
	out := make([]BlockedDate, 0, len(dates))
	for _, s := range dates {
		out = append(out, BlockedDate{CarID: "car-1", Date: d(s)})
	}
	return out
}

func TestResolveMonthStats(t *testing.T) {
	occupants := []Occupant{
		stubRental{period: rng("2024-03-10", "2024-03-12"), occupies: true},
	}
	cal := ResolveMonth("car-1", 2024, time.March, blockedOn("2024-03-15", "2024-03-16"), occupants)

	assert.Equal(t, Stats{TotalDays: 31, AvailableDays: 26, RentalBlockedDays: 3, ManuallyBlockedDays: 2}, cal.Stats)

	status, ok := cal.StatusOn(d("2024-03-11"))
	require.True(t, ok)
	assert.Equal(t, StatusRented, status)

	status, _ = cal.StatusOn(d("2024-03-15"))
	assert.Equal(t, StatusBlocked, status)

	status, _ = cal.StatusOn(d("2024-03-20"))
	assert.Equal(t, StatusAvailable, status)

	_, ok = cal.StatusOn(d("2024-04-01"))
	assert.False(t, ok)
}

func TestResolveRentedWinsOverBlocked(t *testing.T) {
	occupants := []Occupant{stubRental{period: rng("2024-03-10", "2024-03-12"), occupies: true}}
	cal := Resolve("car-1", rng("2024-03-01", "2024-03-31"), blockedOn("2024-03-11"), occupants)

	status, _ := cal.StatusOn(d("2024-03-11"))
	assert.Equal(t, StatusRented, status)
	assert.Equal(t, 3, cal.Stats.RentalBlockedDays)
	assert.Equal(t, 0, cal.Stats.ManuallyBlockedDays)
}

func TestResolveIgnoresFinishedRentals(t *testing.T) {
	occupants := []Occupant{
		stubRental{period: rng("2024-03-10", "2024-03-12"), occupies: false},
	}
	cal := Resolve("car-1", rng("2024-03-01", "2024-03-31"), nil, occupants)
	assert.Equal(t, 31, cal.Stats.AvailableDays)
}

func TestResolveClipsRentalsToWindow(t *testing.T) {
	occupants := []Occupant{
		stubRental{period: rng("2024-02-27", "2024-03-02"), occupies: true},
		stubRental{period: rng("2024-01-01", "2024-01-05"), occupies: true},
	}
	cal := ResolveMonth("car-1", 2024, time.March, nil, occupants)
	assert.Equal(t, 2, cal.Stats.RentalBlockedDays)
	assert.Equal(t, []daterange.Date{d("2024-03-01"), d("2024-03-02")}, cal.DatesWith(StatusRented))
}

func TestStatsAlwaysSumToTotal(t *testing.T) {
	occupants := []Occupant{
		stubRental{period: rng("2024-02-05", "2024-02-09"), occupies: true},
		stubRental{period: rng("2024-02-20", "2024-03-03"), occupies: true},
	}
	cal := ResolveMonth("car-1", 2024, time.February, blockedOn("2024-02-01", "2024-02-07", "2024-02-14"), occupants)
	s := cal.Stats
	assert.Equal(t, 29, s.TotalDays)
	assert.Equal(t, s.TotalDays, s.AvailableDays+s.RentalBlockedDays+s.ManuallyBlockedDays)
	assert.Equal(t, 2, s.ManuallyBlockedDays)
}
