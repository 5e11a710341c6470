package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	domaincars "rentacar/internal/domain/cars"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/domain/shared/money"
)

func TestRentalDocumentKeepsHistoryAndDates(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rental := &domainrental.Rental{
		ID:       "r-1",
		CarID:    "car-1",
		AgencyID: "agency-1",
		ClientID: "client-1",
		Dates:    daterange.Range{Start: daterange.MustParseDate("2024-03-10"), End: daterange.MustParseDate("2024-03-12")},
		PickupAt: at.Add(9 * 24 * time.Hour),
		Status:   domainrental.StatusOngoing,
		Total:    money.Must(15000, "EUR"),
		History: []domainrental.StatusChange{
			{To: domainrental.StatusReserved, By: "client-1", At: at},
			{From: domainrental.StatusReserved, To: domainrental.StatusOngoing, By: "admin-1", At: at.Add(time.Hour)},
		},
		CreatedAt: at,
		UpdatedAt: at.Add(time.Hour),
		Version:   2,
	}

	raw, err := bson.Marshal(newRentalDocument(rental))
	require.NoError(t, err)
	var decoded rentalDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "2024-03-10", decoded.Start)

	back, err := decoded.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, rental.Dates, back.Dates)
	assert.Equal(t, rental.History, back.History)
	assert.Equal(t, rental.Total, back.Total)
	assert.Equal(t, rental.PickupAt, back.PickupAt)
	assert.True(t, back.ReturnAt.IsZero())
}

func TestRentalDocumentRejectsCorruptDates(t *testing.T) {
	_, err := rentalDocument{ID: "r-1", Start: "tomorrow", End: "2024-03-12"}.toAggregate()
	assert.ErrorIs(t, err, daterange.ErrInvalidDate)
}

func TestCarDocumentRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	car := &domaincars.Car{
		ID:          "car-1",
		Agency:      "agency-1",
		Brand:       "Toyota",
		Model:       "Corolla",
		Year:        2022,
		PricePerDay: money.Must(5000, "EUR"),
		Fuel:        domaincars.FuelHybrid,
		Images:      []string{"a.jpg"},
		CreatedAt:   at,
		UpdatedAt:   at,
		Version:     3,
	}
	back := newCarDocument(car).toAggregate()
	assert.Equal(t, car.Title(), back.Title())
	assert.Equal(t, car.PricePerDay, back.PricePerDay)
	assert.Equal(t, car.CreatedAt, back.CreatedAt)
	assert.Equal(t, int64(3), back.Version)
}

func TestBlockedDateIDIsStablePerCarAndDay(t *testing.T) {
	d := daterange.MustParseDate("2024-03-10")
	assert.Equal(t, "car-1:2024-03-10", blockedDateID("car-1", d))

	b, err := blockedDateDocument{CarID: "car-1", Date: "2024-03-10", CreatedAt: 0}.toBlockedDate()
	require.NoError(t, err)
	assert.Equal(t, d, b.Date)
	assert.True(t, b.CreatedAt.IsZero())
}

func TestTranslateClassifiesDriverErrors(t *testing.T) {
	assert.NoError(t, translate("op", nil, nil))

	err := translate("find car", assert.AnError, nil)
	assert.Equal(t, apperr.KindTransport, apperr.KindOf(err))
	assert.ErrorIs(t, err, assert.AnError)
}
