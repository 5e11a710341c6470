package bootstrap_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/app/bootstrap"
	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	availabilityapp "rentacar/internal/app/handlers/availability"
	carsapp "rentacar/internal/app/handlers/cars"
	rentalsapp "rentacar/internal/app/handlers/rentals"
	"rentacar/internal/app/queries"
	domaincars "rentacar/internal/domain/cars"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/infra/storage/memory"
)

var (
	now         = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	client      = actor.Actor{ID: "client-1", Role: actor.RoleClient}
	otherClient = actor.Actor{ID: "client-2", Role: actor.RoleClient}
	admin       = actor.Actor{ID: "admin-1", Role: actor.RoleAgencyAdmin, AgencyID: "agency-1"}
	otherAdmin  = actor.Actor{ID: "admin-2", Role: actor.RoleAgencyAdmin, AgencyID: "agency-2"}
)

type env struct {
	buses   bootstrap.Buses
	factory memory.Factory
	box     *memory.Outbox
	carID   string
}

func setup(t *testing.T) *env {
	t.Helper()
	e := &env{factory: memory.NewFactory(), box: memory.NewOutbox(nil)}
	e.buses = bootstrap.Build(bootstrap.Deps{
		UoWFactory:  e.factory,
		Outbox:      e.box,
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Currency:    "EUR",
		Now:         func() time.Time { return now },
	})
	car, err := commands.Dispatch[carsapp.CreateCarCommand, dto.Car](as(admin), e.buses.Commands, carsapp.CreateCarCommand{
		CarID: "car-1",
		Input: carsapp.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2022, PricePerDay: 5000},
	})
	require.NoError(t, err)
	e.carID = car.ID
	return e
}

func as(a actor.Actor) context.Context {
	return actor.WithActor(context.Background(), a)
}

func d(s string) daterange.Date { return daterange.MustParseDate(s) }

func booking(carID, start, end string) rentalsapp.CreateRentalCommand {
	s, e := d(start), d(end)
	return rentalsapp.CreateRentalCommand{
		CarID:    carID,
		ClientID: client.ID,
		Start:    s,
		End:      e,
		PickupAt: s.Time().Add(10 * time.Hour),
		ReturnAt: e.Time().Add(18 * time.Hour),
	}
}

func (e *env) book(t *testing.T, cmd rentalsapp.CreateRentalCommand) *dto.Rental {
	t.Helper()
	out, err := commands.Dispatch[rentalsapp.CreateRentalCommand, *dto.Rental](as(client), e.buses.Commands, cmd)
	require.NoError(t, err)
	require.NotNil(t, out)
	return out
}

func (e *env) calendar(t *testing.T, who actor.Actor) dto.Calendar {
	t.Helper()
	cal, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](as(who), e.buses.Queries, availabilityapp.GetCalendarQuery{CarID: e.carID, Year: 2024, Month: 3})
	require.NoError(t, err)
	return cal
}

func (e *env) deliveredNames() []string {
	var names []string
	for _, rec := range e.box.Delivered() {
		names = append(names, rec.Name)
	}
	return names
}

func TestEmptyMonthIsFullyAvailable(t *testing.T) {
	e := setup(t)

	cal := e.calendar(t, client)
	assert.Len(t, cal.Days, 31)
	assert.Equal(t, 31, cal.Stats.TotalDays)
	assert.Equal(t, 31, cal.Stats.AvailableDays)
	assert.Zero(t, cal.Stats.RentalBlockedDays)
	assert.Zero(t, cal.Stats.ManuallyBlockedDays)
}

func TestBookingMarksDaysRented(t *testing.T) {
	e := setup(t)

	rental := e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))
	assert.Equal(t, "reserved", rental.Status)
	assert.Equal(t, 3, rental.Days)
	assert.Equal(t, int64(15000), rental.Total.Amount)
	assert.Equal(t, int64(5000), rental.DailyRate.Amount)
	assert.Equal(t, []string{"ongoing", "cancelled"}, rental.AllowedTransitions)

	cal := e.calendar(t, client)
	assert.Equal(t, 3, cal.Stats.RentalBlockedDays)
	assert.Equal(t, 28, cal.Stats.AvailableDays)
	assert.Contains(t, e.deliveredNames(), "rental.created")
}

func TestBlockSkipsRentedDates(t *testing.T) {
	e := setup(t)
	e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))

	res, err := commands.Dispatch[availabilityapp.BlockDatesCommand, dto.BlockResult](as(admin), e.buses.Commands, availabilityapp.BlockDatesCommand{
		CarID: e.carID,
		Dates: []daterange.Date{d("2024-03-10"), d("2024-03-15")},
	})
	require.NoError(t, err)
	assert.Equal(t, []daterange.Date{d("2024-03-15")}, res.Changed)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, d("2024-03-10"), res.Skipped[0].Date)
	assert.NotEmpty(t, res.Message)

	cal := e.calendar(t, admin)
	assert.Equal(t, 1, cal.Stats.ManuallyBlockedDays)
	assert.Equal(t, 3, cal.Stats.RentalBlockedDays)
	assert.Equal(t, 27, cal.Stats.AvailableDays)

	again, err := commands.Dispatch[availabilityapp.BlockDatesCommand, dto.BlockResult](as(admin), e.buses.Commands, availabilityapp.BlockDatesCommand{
		CarID: e.carID,
		Dates: []daterange.Date{d("2024-03-15")},
	})
	require.NoError(t, err)
	assert.Empty(t, again.Changed)
	assert.Len(t, again.Skipped, 1)
}

func TestUnblockReleasesDates(t *testing.T) {
	e := setup(t)
	_, err := commands.Dispatch[availabilityapp.BlockDatesCommand, dto.BlockResult](as(admin), e.buses.Commands, availabilityapp.BlockDatesCommand{
		CarID: e.carID,
		Dates: []daterange.Date{d("2024-03-20"), d("2024-03-21")},
	})
	require.NoError(t, err)

	res, err := commands.Dispatch[availabilityapp.UnblockDatesCommand, dto.BlockResult](as(admin), e.buses.Commands, availabilityapp.UnblockDatesCommand{
		CarID: e.carID,
		Dates: []daterange.Date{d("2024-03-20"), d("2024-03-25")},
	})
	require.NoError(t, err)
	assert.Equal(t, []daterange.Date{d("2024-03-20")}, res.Changed)
	assert.Equal(t, 1, e.calendar(t, admin).Stats.ManuallyBlockedDays)
	assert.Contains(t, e.deliveredNames(), "calendar.dates_unblocked")
}

func TestBlockingRequiresOwningAgency(t *testing.T) {
	e := setup(t)
	cmd := availabilityapp.BlockDatesCommand{CarID: e.carID, Dates: []daterange.Date{d("2024-03-20")}}

	_, err := commands.Dispatch[availabilityapp.BlockDatesCommand, dto.BlockResult](as(otherAdmin), e.buses.Commands, cmd)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = commands.Dispatch[availabilityapp.BlockDatesCommand, dto.BlockResult](as(client), e.buses.Commands, cmd)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = commands.Dispatch[availabilityapp.BlockDatesCommand, dto.BlockResult](context.Background(), e.buses.Commands, cmd)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestOverlappingBookingIsRejectedWithDates(t *testing.T) {
	e := setup(t)
	e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))

	_, err := commands.Dispatch[rentalsapp.CreateRentalCommand, *dto.Rental](as(client), e.buses.Commands, booking(e.carID, "2024-03-09", "2024-03-11"))
	require.Error(t, err)
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	require.True(t, verr.HasRule(domainrental.RuleDatesRented))
	for _, v := range verr.Violations {
		if v.Rule == domainrental.RuleDatesRented {
			assert.Equal(t, []daterange.Date{d("2024-03-10"), d("2024-03-11")}, v.Dates)
		}
	}

	mine, err := queries.Ask[rentalsapp.ListMyRentalsQuery, dto.RentalCollection](as(client), e.buses.Queries, rentalsapp.ListMyRentalsQuery{})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 1)
}

func TestBookingOnBlockedDateIsRejected(t *testing.T) {
	e := setup(t)
	_, err := commands.Dispatch[availabilityapp.BlockDatesCommand, dto.BlockResult](as(admin), e.buses.Commands, availabilityapp.BlockDatesCommand{
		CarID: e.carID,
		Dates: []daterange.Date{d("2024-03-05")},
	})
	require.NoError(t, err)

	_, err = commands.Dispatch[rentalsapp.CreateRentalCommand, *dto.Rental](as(client), e.buses.Commands, booking(e.carID, "2024-03-04", "2024-03-06"))
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasRule(domainrental.RuleDatesBlocked))
}

func TestBookingLongerThanAYearIsRejected(t *testing.T) {
	e := setup(t)

	for _, end := range []string{"2025-03-16", "9999-12-31"} {
		_, err := commands.Dispatch[rentalsapp.CreateRentalCommand, *dto.Rental](as(client), e.buses.Commands, booking(e.carID, "2024-03-15", end))
		var verr *apperr.ValidationError
		require.True(t, errors.As(err, &verr), end)
		assert.True(t, verr.HasRule(domainrental.RuleRangeLimit), end)
	}

	mine, err := queries.Ask[rentalsapp.ListMyRentalsQuery, dto.RentalCollection](as(client), e.buses.Queries, rentalsapp.ListMyRentalsQuery{})
	require.NoError(t, err)
	assert.Empty(t, mine.Items)
	assert.Equal(t, 31, e.calendar(t, client).Stats.AvailableDays)
}

func TestRentalDaysMatchEnumeratedDates(t *testing.T) {
	e := setup(t)

	rental := e.book(t, booking(e.carID, "2024-03-28", "2024-05-02"))
	want := len(daterange.EnumerateDates(d("2024-03-28"), d("2024-05-02")))
	assert.Equal(t, 36, want)
	assert.Equal(t, want, rental.Days)
	assert.Equal(t, int64(5000*want), rental.Total.Amount)
	assert.Equal(t, 4, e.calendar(t, client).Stats.RentalBlockedDays)
}

func TestBlockingSpanIsLimitedToAYear(t *testing.T) {
	e := setup(t)

	_, err := commands.Dispatch[availabilityapp.BlockDatesCommand, dto.BlockResult](as(admin), e.buses.Commands, availabilityapp.BlockDatesCommand{
		CarID: e.carID,
		Dates: []daterange.Date{d("2024-03-15"), d("9999-12-31")},
	})
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasRule("range_limit"))
	assert.Zero(t, e.calendar(t, admin).Stats.ManuallyBlockedDays)

	_, err = commands.Dispatch[availabilityapp.UnblockDatesCommand, dto.BlockResult](as(admin), e.buses.Commands, availabilityapp.UnblockDatesCommand{
		CarID: e.carID,
		Dates: []daterange.Date{d("0001-01-01"), d("2024-03-15")},
	})
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasRule("range_limit"))
}

func TestBookingRejectsWrongClientTotal(t *testing.T) {
	e := setup(t)
	cmd := booking(e.carID, "2024-03-10", "2024-03-12")
	cmd.Total = 10000

	_, err := commands.Dispatch[rentalsapp.CreateRentalCommand, *dto.Rental](as(client), e.buses.Commands, cmd)
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasRule(domainrental.RuleTotalMatchesQuote))

	cmd.Total = 15000
	out := e.book(t, cmd)
	assert.Equal(t, int64(15000), out.Total.Amount)
}

func TestOnlyClientsBook(t *testing.T) {
	e := setup(t)
	_, err := commands.Dispatch[rentalsapp.CreateRentalCommand, *dto.Rental](as(admin), e.buses.Commands, booking(e.carID, "2024-03-10", "2024-03-12"))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = commands.Dispatch[rentalsapp.CreateRentalCommand, *dto.Rental](context.Background(), e.buses.Commands, booking(e.carID, "2024-03-10", "2024-03-12"))
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestIdempotentCreateReplaysResult(t *testing.T) {
	e := setup(t)
	cmd := booking(e.carID, "2024-03-10", "2024-03-12")
	cmd.IdempotencyKeyV = "req-1"

	first := e.book(t, cmd)
	second := e.book(t, cmd)
	assert.Equal(t, first.ID, second.ID)

	mine, err := queries.Ask[rentalsapp.ListMyRentalsQuery, dto.RentalCollection](as(client), e.buses.Queries, rentalsapp.ListMyRentalsQuery{})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 1)
}

func TestConcurrentBookingsOnlyOneSucceeds(t *testing.T) {
	e := setup(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = commands.Dispatch[rentalsapp.CreateRentalCommand, *dto.Rental](as(client), e.buses.Commands, booking(e.carID, "2024-03-10", "2024-03-12"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		kind := apperr.KindOf(err)
		assert.True(t, kind == apperr.KindValidation || kind == apperr.KindConflict, "unexpected error %v", err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestRentalLifecycle(t *testing.T) {
	e := setup(t)
	rental := e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))
	update := func(who actor.Actor, status, expected string) (dto.Rental, error) {
		return commands.Dispatch[rentalsapp.UpdateRentalStatusCommand, dto.Rental](as(who), e.buses.Commands, rentalsapp.UpdateRentalStatusCommand{
			RentalID: rental.ID, Status: status, ExpectedStatus: expected,
		})
	}

	_, err := update(client, "ongoing", "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = update(otherAdmin, "ongoing", "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	started, err := update(admin, "ongoing", "reserved")
	require.NoError(t, err)
	assert.Equal(t, "ongoing", started.Status)
	assert.Equal(t, []string{"completed"}, started.AllowedTransitions)

	_, err = update(admin, "reserved", "")
	assert.ErrorIs(t, err, domainrental.ErrIllegalTransition)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = update(admin, "completed", "reserved")
	var conflict *apperr.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "ongoing", conflict.Actual)

	done, err := update(admin, "completed", "")
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	assert.Empty(t, done.AllowedTransitions)
	assert.Len(t, done.History, 3)

	names := e.deliveredNames()
	assert.Contains(t, names, "rental.started")
	assert.Contains(t, names, "rental.completed")
	assert.Equal(t, 31, e.calendar(t, client).Stats.AvailableDays)
}

func TestClientCancelsOwnReservation(t *testing.T) {
	e := setup(t)
	rental := e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))
	cancel := rentalsapp.CancelRentalCommand{RentalID: rental.ID}

	_, err := commands.Dispatch[rentalsapp.CancelRentalCommand, dto.Rental](as(otherClient), e.buses.Commands, cancel)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	out, err := commands.Dispatch[rentalsapp.CancelRentalCommand, dto.Rental](as(client), e.buses.Commands, cancel)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
	assert.Equal(t, 31, e.calendar(t, client).Stats.AvailableDays)

	_, err = commands.Dispatch[rentalsapp.CancelRentalCommand, dto.Rental](as(client), e.buses.Commands, cancel)
	assert.ErrorIs(t, err, domainrental.ErrIllegalTransition)

	// dates freed by the cancellation can be booked again
	e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))
}

func TestRentalVisibility(t *testing.T) {
	e := setup(t)
	rental := e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))
	get := func(who actor.Actor) (dto.Rental, error) {
		return queries.Ask[rentalsapp.GetRentalQuery, dto.Rental](as(who), e.buses.Queries, rentalsapp.GetRentalQuery{RentalID: rental.ID})
	}

	got, err := get(client)
	require.NoError(t, err)
	assert.Equal(t, "Toyota Corolla (2022)", got.Car.Title)

	_, err = get(admin)
	assert.NoError(t, err)

	_, err = get(otherClient)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = queries.Ask[rentalsapp.GetRentalQuery, dto.Rental](as(client), e.buses.Queries, rentalsapp.GetRentalQuery{RentalID: "missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	clientView := e.calendar(t, client)
	require.Len(t, clientView.Rentals, 1)
	assert.Empty(t, clientView.Rentals[0].ClientID)
	adminView := e.calendar(t, admin)
	require.Len(t, adminView.Rentals, 1)
	assert.Equal(t, client.ID, adminView.Rentals[0].ClientID)
}

func TestAgencyRentalsFilterByStatus(t *testing.T) {
	e := setup(t)
	first := e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))
	e.book(t, booking(e.carID, "2024-03-20", "2024-03-22"))
	_, err := commands.Dispatch[rentalsapp.CancelRentalCommand, dto.Rental](as(admin), e.buses.Commands, rentalsapp.CancelRentalCommand{RentalID: first.ID})
	require.NoError(t, err)

	list := func(who actor.Actor, statuses ...string) (dto.RentalCollection, error) {
		return queries.Ask[rentalsapp.ListAgencyRentalsQuery, dto.RentalCollection](as(who), e.buses.Queries, rentalsapp.ListAgencyRentalsQuery{AgencyID: "agency-1", Statuses: statuses})
	}

	all, err := list(admin)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	reserved, err := list(admin, "reserved")
	require.NoError(t, err)
	require.Len(t, reserved.Items, 1)
	assert.Equal(t, "reserved", reserved.Items[0].Status)

	_, err = list(admin, "bogus")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = list(otherAdmin)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestQuoteReportsConflicts(t *testing.T) {
	e := setup(t)
	e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))

	quote, err := queries.Ask[rentalsapp.QuoteQuery, dto.Quote](context.Background(), e.buses.Queries, rentalsapp.QuoteQuery{CarID: e.carID, Start: d("2024-03-08"), End: d("2024-03-10")})
	require.NoError(t, err)
	assert.Equal(t, 3, quote.Days)
	assert.Equal(t, int64(15000), quote.Total.Amount)
	assert.False(t, quote.Available)
	assert.Equal(t, []string{"2024-03-10"}, quote.Conflicts)

	free, err := queries.Ask[rentalsapp.QuoteQuery, dto.Quote](context.Background(), e.buses.Queries, rentalsapp.QuoteQuery{CarID: e.carID, Start: d("2024-03-20"), End: d("2024-03-20")})
	require.NoError(t, err)
	assert.True(t, free.Available)
	assert.Equal(t, 1, free.Days)
}

func TestDeleteCarWithActiveRentalConflicts(t *testing.T) {
	e := setup(t)
	rental := e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))
	del := carsapp.DeleteCarCommand{CarID: e.carID}

	_, err := commands.Dispatch[carsapp.DeleteCarCommand, struct{}](as(admin), e.buses.Commands, del)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = commands.Dispatch[rentalsapp.CancelRentalCommand, dto.Rental](as(client), e.buses.Commands, rentalsapp.CancelRentalCommand{RentalID: rental.ID})
	require.NoError(t, err)

	_, err = commands.Dispatch[carsapp.DeleteCarCommand, struct{}](as(admin), e.buses.Commands, del)
	require.NoError(t, err)

	_, err = queries.Ask[carsapp.GetCarQuery, dto.Car](context.Background(), e.buses.Queries, carsapp.GetCarQuery{CarID: e.carID})
	assert.ErrorIs(t, err, domaincars.ErrCarNotFound)

	past, err := queries.Ask[rentalsapp.GetRentalQuery, dto.Rental](as(client), e.buses.Queries, rentalsapp.GetRentalQuery{RentalID: rental.ID})
	require.NoError(t, err)
	assert.Empty(t, past.Car.Title)
}

func TestPickupReminderFlagsTomorrowsReservations(t *testing.T) {
	e := setup(t)
	e.book(t, booking(e.carID, "2024-03-02", "2024-03-04"))
	e.book(t, booking(e.carID, "2024-03-10", "2024-03-12"))

	require.NoError(t, e.buses.Reminder.Run(context.Background()))

	var due int
	for _, name := range e.deliveredNames() {
		if name == "rental.pickup_due" {
			due++
		}
	}
	assert.Equal(t, 1, due)

	mine, err := queries.Ask[rentalsapp.ListMyRentalsQuery, dto.RentalCollection](as(client), e.buses.Queries, rentalsapp.ListMyRentalsQuery{})
	require.NoError(t, err)
	for _, r := range mine.Items {
		assert.Equal(t, "reserved", r.Status)
	}
}
