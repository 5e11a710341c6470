package jobs

import (
	"context"
	"log/slog"
	"time"

	handlersupport "rentacar/internal/app/handlers/support"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/schedule"
	"rentacar/internal/app/uow"
	domainrental "rentacar/internal/domain/rental"
	"rentacar/internal/domain/shared/daterange"
)

// PickupReminder emits rental.pickup_due for every reserved rental that
// starts tomorrow. It never changes a rental's status.
type PickupReminder struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (j *PickupReminder) Name() string { return "pickup-reminder" }

func (j *PickupReminder) Run(ctx context.Context) error {
	now := handlersupport.Clock(j.Now)
	tomorrow := daterange.DateOf(now).AddDays(1)

	flagged := 0
	err := handlersupport.WithinUnit(ctx, j.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		due, err := unit.Rentals().ListStartingOn(ctx, tomorrow, domainrental.StatusReserved)
		if err != nil {
			return err
		}
		for _, r := range due {
			r.FlagPickupDue(now)
			if err := outbox.Record(ctx, j.Outbox, j.Encoder, r); err != nil {
				return err
			}
			flagged++
		}
		return nil
	})
	if err != nil {
		return err
	}
	if j.Outbox != nil && flagged > 0 {
		if err := j.Outbox.Flush(ctx); err != nil {
			return err
		}
	}
	if j.Logger != nil {
		j.Logger.InfoContext(ctx, "pickup reminders emitted", "date", tomorrow.String(), "count", flagged)
	}
	return nil
}

var _ schedule.Job = (*PickupReminder)(nil)
