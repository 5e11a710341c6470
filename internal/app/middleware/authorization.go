package middleware

import (
	"context"
	"fmt"
	"slices"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/queries"
	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// Restricted is implemented by messages that need an authenticated actor
// holding one of the returned roles. An empty list admits any actor.
type Restricted interface {
	AllowedRoles() []actor.Role
}

// RoleAuthorizer enforces Restricted. Ownership checks stay in handlers.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	restricted, ok := message.(Restricted)
	if !ok {
		return nil
	}
	who, ok := actor.FromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: sign in required", apperr.ErrUnauthenticated)
	}
	roles := restricted.AllowedRoles()
	if len(roles) == 0 || slices.Contains(roles, who.Role) {
		return nil
	}
	return apperr.Forbidden(fmt.Sprintf("role %s not allowed", who.Role))
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}

var _ Authorizer = RoleAuthorizer{}
