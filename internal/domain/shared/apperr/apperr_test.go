package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/domain/shared/daterange"
)

func TestValidationErrorCollectsViolations(t *testing.T) {
	verr := &ValidationError{}
	assert.NoError(t, verr.OrNil())

	verr.Add("start_not_past", "start date is in the past")
	verr.Add("dates_blocked", "dates are blocked", daterange.MustParseDate("2024-03-11"))

	err := verr.OrNil()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, verr.HasRule("dates_blocked"))
	assert.False(t, verr.HasRule("dates_rented"))
	assert.Contains(t, err.Error(), "start date is in the past; dates are blocked")

	var target *ValidationError
	require.True(t, errors.As(fmt.Errorf("create rental: %w", err), &target))
	assert.Len(t, target.Violations, 2)
}

func TestKindOf(t *testing.T) {
	cases := map[Kind]error{
		KindConflict:        &ConflictError{Resource: "rental", ID: "r-1", Expected: "reserved", Actual: "cancelled"},
		KindNotFound:        NotFound("car", "c-1"),
		KindForbidden:       Forbidden("not your rental"),
		KindUnauthenticated: fmt.Errorf("token expired: %w", ErrUnauthenticated),
		KindTransport:       Transport("mongo.rentals.insert", errors.New("connection reset")),
		KindInternal:        errors.New("boom"),
	}
	for kind, err := range cases {
		assert.Equal(t, kind, KindOf(err), err.Error())
	}
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestTransportUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Transport("kafka.publish", cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Nil(t, Transport("noop", nil))
}
