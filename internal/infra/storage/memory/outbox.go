package memory

import (
	"context"
	"sync"

	appoutbox "rentacar/internal/app/outbox"
)

// Sink receives records when the outbox is flushed.
type Sink func(ctx context.Context, records []appoutbox.EventRecord) error

// Outbox buffers records until flushed and then hands them to the sink.
// It stands in for the Mongo outbox and Kafka relay in memory mode.
type Outbox struct {
	mu        sync.Mutex
	pending   []appoutbox.EventRecord
	delivered []appoutbox.EventRecord
	sink      Sink
}

func NewOutbox(sink Sink) *Outbox {
	return &Outbox{sink: sink}
}

func (o *Outbox) Add(_ context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	if o.sink != nil {
		if err := o.sink(ctx, batch); err != nil {
			o.mu.Lock()
			o.pending = append(batch, o.pending...)
			o.mu.Unlock()
			return err
		}
	}
	o.mu.Lock()
	o.delivered = append(o.delivered, batch...)
	o.mu.Unlock()
	return nil
}

// Delivered returns a copy of every flushed record, oldest first.
func (o *Outbox) Delivered() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.delivered...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
