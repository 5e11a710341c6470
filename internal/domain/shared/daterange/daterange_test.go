package daterange

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := ParseDate("2024-03-10")
		require.NoError(t, err)
		assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 10}, d)
		assert.Equal(t, "2024-03-10", d.String())
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseDate("10/03/2024")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("impossible day", func(t *testing.T) {
		_, err := ParseDate("2024-02-30")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestDateOfIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, time.March, 10, 23, 59, 0, 0, time.UTC)
	early := time.Date(2024, time.March, 10, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, DateOf(early), DateOf(late))
}

func TestDaysBetweenInclusive(t *testing.T) {
	start := MustParseDate("2024-03-10")

	assert.Equal(t, 1, DaysBetweenInclusive(start, start))
	assert.Equal(t, 3, DaysBetweenInclusive(start, MustParseDate("2024-03-12")))
	assert.Equal(t, 1, DaysBetweenInclusive(start, MustParseDate("2024-03-01")), "inverted range floors at one day")
	assert.Equal(t, 22, DaysBetweenInclusive(MustParseDate("2024-02-20"), MustParseDate("2024-03-12")), "crosses a leap-year february")
}

func TestEnumerateDates(t *testing.T) {
	dates := EnumerateDates(MustParseDate("2024-02-28"), MustParseDate("2024-03-01"))
	require.Len(t, dates, 3)
	assert.Equal(t, "2024-02-28", dates[0].String())
	assert.Equal(t, "2024-02-29", dates[1].String())
	assert.Equal(t, "2024-03-01", dates[2].String())

	assert.Empty(t, EnumerateDates(MustParseDate("2024-03-02"), MustParseDate("2024-03-01")))

	again := EnumerateDates(MustParseDate("2024-02-28"), MustParseDate("2024-03-01"))
	assert.Equal(t, dates, again)
}

func TestEnumerateMatchesDayCount(t *testing.T) {
	start := MustParseDate("2023-12-25")
	for n := 0; n < 45; n++ {
		end := start.AddDays(n)
		assert.Len(t, EnumerateDates(start, end), DaysBetweenInclusive(start, end))
	}
}

func TestDayCountAcrossCenturies(t *testing.T) {
	start, end := MustParseDate("2026-10-19"), MustParseDate("2400-01-01")
	assert.Equal(t, 136310, DaysBetweenInclusive(start, end))
	assert.Len(t, EnumerateDates(start, end), 136310)

	assert.Equal(t, 3652059, DaysBetweenInclusive(MustParseDate("0001-01-01"), MustParseDate("9999-12-31")))
}

func TestIsPast(t *testing.T) {
	now := time.Date(2024, time.March, 10, 8, 30, 0, 0, time.UTC)

	assert.True(t, IsPast(MustParseDate("2024-03-09"), now))
	assert.False(t, IsPast(MustParseDate("2024-03-10"), now), "today is not past")
	assert.False(t, IsPast(MustParseDate("2024-03-11"), now))
}

func TestMonth(t *testing.T) {
	march := Month(2024, time.March)
	assert.Equal(t, 31, march.Days())
	assert.Equal(t, "2024-03-01", march.Start.String())
	assert.Equal(t, "2024-03-31", march.End.String())

	assert.Equal(t, 29, Month(2024, time.February).Days())
	assert.Equal(t, 28, Month(2023, time.February).Days())
}

func TestRange(t *testing.T) {
	r, err := NewRange(MustParseDate("2024-03-10"), MustParseDate("2024-03-12"))
	require.NoError(t, err)

	assert.True(t, r.Contains(MustParseDate("2024-03-10")))
	assert.True(t, r.Contains(MustParseDate("2024-03-12")))
	assert.False(t, r.Contains(MustParseDate("2024-03-13")))

	other := Range{Start: MustParseDate("2024-03-12"), End: MustParseDate("2024-03-20")}
	assert.True(t, r.Overlaps(other), "shared end day overlaps")
	assert.False(t, r.Overlaps(Range{Start: MustParseDate("2024-03-13"), End: MustParseDate("2024-03-14")}))

	_, err = NewRange(MustParseDate("2024-03-12"), MustParseDate("2024-03-10"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewRange(Date{}, MustParseDate("2024-03-10"))
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestSpanning(t *testing.T) {
	r, ok := Spanning([]Date{MustParseDate("2024-03-15"), MustParseDate("2024-02-10"), MustParseDate("2024-03-01")})
	require.True(t, ok)
	assert.Equal(t, "2024-02-10..2024-03-15", r.String())

	_, ok = Spanning(nil)
	assert.False(t, ok)
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
	}
	raw, err := json.Marshal(payload{Date: MustParseDate("2024-03-15")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-15"}`, string(raw))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-12-01"}`), &decoded))
	assert.Equal(t, MustParseDate("2024-12-01"), decoded.Date)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"tomorrow"}`), &decoded))
}
