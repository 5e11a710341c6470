package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/domain/shared/actor"
)

func TestSignAndVerify(t *testing.T) {
	v := NewTokenVerifier("secret", "rentacar")
	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAgencyAdmin, AgencyID: "agency-1"}

	token, err := v.Sign(admin, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, admin, got)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := NewTokenVerifier("secret", "rentacar")
	client := actor.Actor{ID: "c-1", Role: actor.RoleClient}

	other, err := NewTokenVerifier("other", "rentacar").Sign(client, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewTokenVerifier("secret", "elsewhere").Sign(client, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := v.Sign(client, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = v.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresKnownRoleAndAgency(t *testing.T) {
	v := NewTokenVerifier("secret", "")
	sign := func(c Claims) string {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
		require.NoError(t, err)
		return s
	}

	_, err := v.Verify(sign(Claims{Role: "pilot", RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(sign(Claims{Role: "agency_admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(sign(Claims{Role: "client"}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	got, err := v.Verify(sign(Claims{Role: "super_admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "root"}}))
	require.NoError(t, err)
	assert.Equal(t, actor.RoleSuperAdmin, got.Role)
}
