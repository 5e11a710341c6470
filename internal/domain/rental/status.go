package rental

import (
	"errors"
	"fmt"
	"strings"

	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
)

type Status string

const (
	StatusReserved  Status = "reserved"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var (
	ErrUnknownStatus     = errors.New("rental: unknown status")
	ErrIllegalTransition = errors.New("rental: illegal status transition")
)

// party is who may drive a transition.
type party int

const (
	partyAdmin party = 1 << iota
	partyOwner
)

type edge struct {
	from, to Status
}

var transitions = map[edge]party{
	{StatusReserved, StatusOngoing}:   partyAdmin,
	{StatusReserved, StatusCancelled}: partyAdmin | partyOwner,
	{StatusOngoing, StatusCompleted}:  partyAdmin,
}

func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, value)
	}
	return s, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusReserved, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Occupies reports whether a rental in this status holds its dates.
func (s Status) Occupies() bool {
	return s == StatusReserved || s == StatusOngoing
}

func (s Status) CanTransitionTo(next Status) bool {
	_, ok := transitions[edge{s, next}]
	return ok
}

// AllowedNext lists the statuses reachable in one step, in lifecycle order.
func (s Status) AllowedNext() []Status {
	var out []Status
	for _, next := range []Status{StatusOngoing, StatusCompleted, StatusCancelled} {
		if s.CanTransitionTo(next) {
			out = append(out, next)
		}
	}
	return out
}

// TransitionError is returned for moves outside the lifecycle graph.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("rental: cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition || target == apperr.ErrConflict
}

// authorize checks who may drive from→to on a rental of agency owned by client.
func authorize(from, to Status, by actor.Actor, agencyID, clientID string) error {
	allowed := transitions[edge{from, to}]
	if allowed&partyAdmin != 0 && by.ManagesAgency(agencyID) {
		return nil
	}
	if allowed&partyOwner != 0 && by.Role == actor.RoleClient && by.ID == clientID {
		return nil
	}
	return apperr.Forbidden(fmt.Sprintf("%s may not move rental to %s", by.Role, to))
}
