package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/domain/shared/daterange"
)

var now = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func TestPlanBlockSkipsRentedAndBlocked(t *testing.T) {
	occupants := []Occupant{stubRental{period: rng("2024-03-10", "2024-03-12"), occupies: true}}
	requested := []daterange.Date{d("2024-03-12"), d("2024-03-13"), d("2024-03-14"), d("2024-03-13")}
	window, ok := Window(requested)
	require.True(t, ok)

	cal := Resolve("car-1", window, blockedOn("2024-03-14"), occupants)
	plan := PlanBlock(cal, requested, now)

	assert.Equal(t, []daterange.Date{d("2024-03-13")}, plan.Add)
	assert.Equal(t, []Skipped{
		{Date: d("2024-03-12"), Reason: SkipRented},
		{Date: d("2024-03-14"), Reason: SkipAlreadyBlocked},
	}, plan.Skipped)
}

func TestPlanBlockSkipsPastDates(t *testing.T) {
	requested := []daterange.Date{d("2024-02-28"), d("2024-03-01")}
	window, _ := Window(requested)
	cal := Resolve("car-1", window, nil, nil)

	plan := PlanBlock(cal, requested, now)
	assert.Equal(t, []daterange.Date{d("2024-03-01")}, plan.Add, "today can still be blocked")
	assert.Equal(t, []Skipped{{Date: d("2024-02-28"), Reason: SkipPast}}, plan.Skipped)
}

func TestPlanBlockIsIdempotent(t *testing.T) {
	requested := []daterange.Date{d("2024-03-20"), d("2024-03-21")}
	window, _ := Window(requested)

	first := PlanBlock(Resolve("car-1", window, nil, nil), requested, now)
	require.Len(t, first.Add, 2)

	var stored []BlockedDate
	for _, date := range first.Add {
		stored = append(stored, BlockedDate{CarID: "car-1", Date: date})
	}
	second := PlanBlock(Resolve("car-1", window, stored, nil), requested, now)
	assert.Empty(t, second.Add)
	assert.Len(t, second.Skipped, 2)
}

func TestPlanUnblock(t *testing.T) {
	occupants := []Occupant{stubRental{period: rng("2024-03-10", "2024-03-12"), occupies: true}}
	requested := []daterange.Date{d("2024-03-11"), d("2024-03-15"), d("2024-03-16")}
	window, _ := Window(requested)
	cal := Resolve("car-1", window, blockedOn("2024-03-11", "2024-03-15"), occupants)

	plan := PlanUnblock(cal, requested)
	assert.Equal(t, []daterange.Date{d("2024-03-15")}, plan.Remove)
	assert.Equal(t, []Skipped{
		{Date: d("2024-03-11"), Reason: SkipRented},
		{Date: d("2024-03-16"), Reason: SkipNotBlocked},
	}, plan.Skipped)

	after := Resolve("car-1", window, blockedOn("2024-03-11"), occupants)
	again := PlanUnblock(after, requested)
	assert.Empty(t, again.Remove)
}
