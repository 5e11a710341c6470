package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/apperr"
	"rentacar/internal/domain/shared/daterange"
)

// CarRepository keeps cars in a map. Stored values are copies so callers
// cannot mutate state without saving.
type CarRepository struct {
	mu    sync.RWMutex
	items map[domaincars.CarID]*domaincars.Car
}

func NewCarRepository() *CarRepository {
	return &CarRepository{items: make(map[domaincars.CarID]*domaincars.Car)}
}

func (r *CarRepository) ByID(_ context.Context, id domaincars.CarID) (*domaincars.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	car, ok := r.items[id]
	if !ok {
		return nil, domaincars.ErrCarNotFound
	}
	return cloneCar(car), nil
}

func (r *CarRepository) Save(_ context.Context, car *domaincars.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[car.ID]; ok && existing.Version != car.Version {
		return &apperr.ConflictError{Resource: "car", ID: string(car.ID)}
	}
	car.Version++
	r.items[car.ID] = cloneCar(car)
	return nil
}

func (r *CarRepository) Delete(_ context.Context, id domaincars.CarID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domaincars.ErrCarNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *CarRepository) List(ctx context.Context, params domaincars.ListParams) ([]*domaincars.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domaincars.Car, 0, len(r.items))
	for _, car := range r.items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if params.Agency != "" && car.Agency != params.Agency {
			continue
		}
		out = append(out, cloneCar(car))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Brand != out[j].Brand {
			return out[i].Brand < out[j].Brand
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, params.Offset, params.Limit), nil
}

func cloneCar(car *domaincars.Car) *domaincars.Car {
	c := *car
	c.Images = append([]string(nil), car.Images...)
	c.ClearEvents()
	return &c
}

// BlockedDateRepository stores one marker per car and date.
type BlockedDateRepository struct {
	mu    sync.RWMutex
	items map[domaincars.CarID]map[daterange.Date]domainavailability.BlockedDate
}

func NewBlockedDateRepository() *BlockedDateRepository {
	return &BlockedDateRepository{items: make(map[domaincars.CarID]map[daterange.Date]domainavailability.BlockedDate)}
}

func (r *BlockedDateRepository) ListBlocked(_ context.Context, carID domaincars.CarID, window daterange.Range) ([]domainavailability.BlockedDate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domainavailability.BlockedDate
	for d, b := range r.items[carID] {
		if window.Contains(d) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *BlockedDateRepository) AddBlocked(_ context.Context, carID domaincars.CarID, dates []daterange.Date, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDate, ok := r.items[carID]
	if !ok {
		byDate = make(map[daterange.Date]domainavailability.BlockedDate)
		r.items[carID] = byDate
	}
	for _, d := range dates {
		if _, exists := byDate[d]; exists {
			continue
		}
		byDate[d] = domainavailability.BlockedDate{CarID: carID, Date: d, CreatedAt: now.UTC()}
	}
	return nil
}

func (r *BlockedDateRepository) RemoveBlocked(_ context.Context, carID domaincars.CarID, dates []daterange.Date) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDate := r.items[carID]
	for _, d := range dates {
		delete(byDate, d)
	}
	return nil
}

func (r *BlockedDateRepository) RemoveAllForCar(_ context.Context, carID domaincars.CarID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, carID)
	return nil
}

// RentalRepository guards status changes with a compare-and-set under its
// lock and refuses overlapping occupying rentals for the same car.
type RentalRepository struct {
	mu    sync.RWMutex
	items map[domainrental.RentalID]*domainrental.Rental
}

func NewRentalRepository() *RentalRepository {
	return &RentalRepository{items: make(map[domainrental.RentalID]*domainrental.Rental)}
}

func (r *RentalRepository) ByID(_ context.Context, id domainrental.RentalID) (*domainrental.Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rental, ok := r.items[id]
	if !ok {
		return nil, domainrental.ErrRentalNotFound
	}
	return cloneRental(rental), nil
}

func (r *RentalRepository) Create(_ context.Context, rental *domainrental.Rental) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[rental.ID]; exists {
		return &apperr.ConflictError{Resource: "rental", ID: string(rental.ID)}
	}
	for _, other := range r.items {
		if other.CarID == rental.CarID && other.OccupiesCalendar() && other.Dates.Overlaps(rental.Dates) {
			return &apperr.ConflictError{Resource: "car", ID: string(rental.CarID), Expected: "available", Actual: "rented"}
		}
	}
	rental.Version = 1
	r.items[rental.ID] = cloneRental(rental)
	return nil
}

func (r *RentalRepository) UpdateStatus(_ context.Context, rental *domainrental.Rental, expected domainrental.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[rental.ID]
	if !ok {
		return domainrental.ErrRentalNotFound
	}
	if stored.Status != expected {
		return &apperr.ConflictError{Resource: "rental", ID: string(rental.ID), Expected: string(expected), Actual: string(stored.Status)}
	}
	rental.Version = stored.Version + 1
	r.items[rental.ID] = cloneRental(rental)
	return nil
}

func (r *RentalRepository) ListByCar(_ context.Context, carID domaincars.CarID, window daterange.Range) ([]*domainrental.Rental, error) {
	return r.filter(func(x *domainrental.Rental) bool {
		return x.CarID == carID && x.Dates.Overlaps(window)
	}), nil
}

func (r *RentalRepository) ListByClient(_ context.Context, clientID string) ([]*domainrental.Rental, error) {
	return r.filter(func(x *domainrental.Rental) bool { return x.ClientID == clientID }), nil
}

func (r *RentalRepository) ListByAgency(_ context.Context, agencyID domaincars.AgencyID, statuses []domainrental.Status) ([]*domainrental.Rental, error) {
	return r.filter(func(x *domainrental.Rental) bool {
		return x.AgencyID == agencyID && statusIn(x.Status, statuses)
	}), nil
}

func (r *RentalRepository) ListStartingOn(_ context.Context, date daterange.Date, status domainrental.Status) ([]*domainrental.Rental, error) {
	return r.filter(func(x *domainrental.Rental) bool {
		return x.Dates.Start == date && x.Status == status
	}), nil
}

func (r *RentalRepository) CountActiveByCar(_ context.Context, carID domaincars.CarID) (int, error) {
	return len(r.filter(func(x *domainrental.Rental) bool {
		return x.CarID == carID && x.OccupiesCalendar()
	})), nil
}

func (r *RentalRepository) filter(keep func(*domainrental.Rental) bool) []*domainrental.Rental {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainrental.Rental
	for _, x := range r.items {
		if keep(x) {
			out = append(out, cloneRental(x))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dates.Start != out[j].Dates.Start {
			return out[i].Dates.Start.Before(out[j].Dates.Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneRental(rental *domainrental.Rental) *domainrental.Rental {
	c := *rental
	c.History = append([]domainrental.StatusChange(nil), rental.History...)
	c.ClearEvents()
	return &c
}

func statusIn(s domainrental.Status, statuses []domainrental.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var (
	_ domaincars.Repository         = (*CarRepository)(nil)
	_ domainavailability.Repository = (*BlockedDateRepository)(nil)
	_ domainrental.Repository       = (*RentalRepository)(nil)
)
