package actor

import (
	"context"
	"errors"
	"strings"
)

type Role string

const (
	RoleClient      Role = "client"
	RoleAgencyAdmin Role = "agency_admin"
	RoleSuperAdmin  Role = "super_admin"
)

var ErrUnknownRole = errors.New("actor: unknown role")

func ParseRole(value string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(value))); r {
	case RoleClient, RoleAgencyAdmin, RoleSuperAdmin:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

// Actor is the authenticated principal behind a request.
type Actor struct {
	ID       string
	Role     Role
	AgencyID string
}

func (a Actor) IsZero() bool { return a.ID == "" }

// IsAdmin is true for agency and super admins.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAgencyAdmin || a.Role == RoleSuperAdmin
}

// ManagesAgency reports whether the actor may administer the agency's cars and rentals.
func (a Actor) ManagesAgency(agencyID string) bool {
	switch a.Role {
	case RoleSuperAdmin:
		return true
	case RoleAgencyAdmin:
		return agencyID != "" && a.AgencyID == agencyID
	default:
		return false
	}
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	if !ok || a.IsZero() {
		return Actor{}, false
	}
	return a, true
}
