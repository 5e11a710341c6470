package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizesCurrency(t *testing.T) {
	m, err := New(1500, " eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", m.Currency)

	_, err = New(1500, "EURO")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAdd(t *testing.T) {
	sum, err := Must(1000, "EUR").Add(Must(250, "EUR"))
	require.NoError(t, err)
	assert.Equal(t, Must(1250, "EUR"), sum)

	_, err = Must(1000, "EUR").Add(Must(250, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestDivideRound(t *testing.T) {
	cases := []struct {
		amount int64
		parts  int64
		want   int64
	}{
		{amount: 10000, parts: 4, want: 2500},
		{amount: 10000, parts: 3, want: 3333},
		{amount: 20000, parts: 3, want: 6667},
		{amount: 5, parts: 2, want: 3},
		{amount: -5, parts: 2, want: -3},
	}
	for _, tc := range cases {
		got, err := Must(tc.amount, "EUR").DivideRound(tc.parts)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Amount, "%d / %d", tc.amount, tc.parts)
	}

	_, err := Must(100, "EUR").DivideRound(0)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestString(t *testing.T) {
	assert.Equal(t, "150.00 EUR", Must(15000, "EUR").String())
	assert.Equal(t, "0.05 USD", Must(5, "USD").String())
	assert.Equal(t, "-12.30 USD", Must(-1230, "USD").String())
}
