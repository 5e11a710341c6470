package rental

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/domain/shared/events"
	"rentacar/internal/domain/shared/money"
)

var (
	ErrRentalNotFound   = fmt.Errorf("rental: rental %w", apperr.ErrNotFound)
	ErrClientRequired   = errors.New("rental: client is required")
	ErrTotalNotPositive = errors.New("rental: total must be positive")
)

type RentalID string

type StatusChange struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	By   string    `json:"by"`
	At   time.Time `json:"at"`
}

// Rental reserves a car for an inclusive range of days. Rentals are never
// deleted; they end in completed or cancelled.
type Rental struct {
	ID        RentalID
	CarID     cars.CarID
	AgencyID  cars.AgencyID
	ClientID  string
	Dates     daterange.Range
	PickupAt  time.Time
	ReturnAt  time.Time
	Status    Status
	Total     money.Money
	Notes     string
	History   []StatusChange
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RentalID) (*Rental, error)
	Create(ctx context.Context, r *Rental) error
	// UpdateStatus persists r only if the stored status still equals
	// expected; otherwise it fails with *apperr.ConflictError.
	UpdateStatus(ctx context.Context, r *Rental, expected Status) error
	// ListByCar returns the car's rentals overlapping window, any status.
	ListByCar(ctx context.Context, carID cars.CarID, window daterange.Range) ([]*Rental, error)
	ListByClient(ctx context.Context, clientID string) ([]*Rental, error)
	// ListByAgency filters by status when statuses is non-empty.
	ListByAgency(ctx context.Context, agencyID cars.AgencyID, statuses []Status) ([]*Rental, error)
	ListStartingOn(ctx context.Context, date daterange.Date, status Status) ([]*Rental, error)
	CountActiveByCar(ctx context.Context, carID cars.CarID) (int, error)
}

type CreateParams struct {
	ID       RentalID
	Car      *cars.Car
	ClientID string
	Dates    daterange.Range
	PickupAt time.Time
	ReturnAt time.Time
	Total    money.Money
	Notes    string
	Now      time.Time
}

// NewRental builds a reserved rental. Callers validate the booking and
// quote the total before calling it.
func NewRental(p CreateParams) (*Rental, error) {
	if strings.TrimSpace(string(p.ID)) == "" {
		return nil, errors.New("rental: id is required")
	}
	if p.Car == nil {
		return nil, cars.ErrCarNotFound
	}
	if strings.TrimSpace(p.ClientID) == "" {
		return nil, ErrClientRequired
	}
	if err := p.Dates.Validate(); err != nil {
		return nil, err
	}
	if !p.Total.IsPositive() {
		return nil, ErrTotalNotPositive
	}
	now := p.Now.UTC()
	r := &Rental{
		ID:        p.ID,
		CarID:     p.Car.ID,
		AgencyID:  p.Car.Agency,
		ClientID:  p.ClientID,
		Dates:     p.Dates,
		PickupAt:  p.PickupAt.UTC(),
		ReturnAt:  p.ReturnAt.UTC(),
		Status:    StatusReserved,
		Total:     p.Total,
		Notes:     strings.TrimSpace(p.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.History = []StatusChange{{To: StatusReserved, By: p.ClientID, At: now}}
	r.Record(RentalCreated{
		RentalID: r.ID,
		CarID:    r.CarID,
		AgencyID: r.AgencyID,
		ClientID: r.ClientID,
		Start:    r.Dates.Start,
		End:      r.Dates.End,
		Total:    r.Total,
		At:       now,
	})
	return r, nil
}

// Period and OccupiesCalendar let the availability resolver consume rentals.
func (r *Rental) Period() daterange.Range { return r.Dates }
func (r *Rental) OccupiesCalendar() bool  { return r.Status.Occupies() }

// Days is the inclusive number of rented days.
func (r *Rental) Days() int { return r.Dates.Days() }

// Transition moves the rental to the next status on behalf of by.
func (r *Rental) Transition(to Status, by actor.Actor, now time.Time) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	from := r.Status
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	if err := authorize(from, to, by, string(r.AgencyID), r.ClientID); err != nil {
		return err
	}
	at := now.UTC()
	r.Status = to
	r.UpdatedAt = at
	r.History = append(r.History, StatusChange{From: from, To: to, By: by.ID, At: at})
	r.Record(statusEvent(r, from, by.ID, at))
	return nil
}

func (r *Rental) Start(by actor.Actor, now time.Time) error {
	return r.Transition(StatusOngoing, by, now)
}

func (r *Rental) Complete(by actor.Actor, now time.Time) error {
	return r.Transition(StatusCompleted, by, now)
}

func (r *Rental) Cancel(by actor.Actor, now time.Time) error {
	return r.Transition(StatusCancelled, by, now)
}

// VisibleTo reports whether a may read the rental.
func (r *Rental) VisibleTo(a actor.Actor) bool {
	return a.ID == r.ClientID || a.ManagesAgency(string(r.AgencyID))
}

// FlagPickupDue records that the pickup is imminent. Status is unchanged.
func (r *Rental) FlagPickupDue(now time.Time) {
	r.Record(PickupDue{RentalID: r.ID, CarID: r.CarID, ClientID: r.ClientID, PickupAt: r.PickupAt, Start: r.Dates.Start, At: now.UTC()})
}
