package support

import (
	"context"
	"fmt"

	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
)

var (
	AdminRoles = []actor.Role{actor.RoleAgencyAdmin, actor.RoleSuperAdmin}
	AnyRole    = []actor.Role{actor.RoleClient, actor.RoleAgencyAdmin, actor.RoleSuperAdmin}
)

func RequireActor(ctx context.Context) (actor.Actor, error) {
	who, ok := actor.FromContext(ctx)
	if !ok {
		return actor.Actor{}, fmt.Errorf("%w: sign in required", apperr.ErrUnauthenticated)
	}
	return who, nil
}

// RequireAgencyAdmin fails unless the actor administers agencyID.
func RequireAgencyAdmin(ctx context.Context, agencyID string) (actor.Actor, error) {
	who, err := RequireActor(ctx)
	if err != nil {
		return actor.Actor{}, err
	}
	if !who.ManagesAgency(agencyID) {
		return actor.Actor{}, apperr.Forbidden("agency " + agencyID + " is managed by another account")
	}
	return who, nil
}
